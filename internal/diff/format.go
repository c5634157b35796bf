package diff

import (
	"fmt"
	"strings"
)

// FormatReport renders a diff analysis for a terminal.
func FormatReport(r *Report) string {
	if r.Empty() {
		return "No changed files found in diff; nothing to analyze.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Changed files (%d):\n", len(r.ChangedFiles))
	for _, cf := range r.ChangedFiles {
		fmt.Fprintf(&b, "  [%s] %s", cf.ChangeType, cf.Path)
		if len(cf.ChangedSymbols) > 0 {
			fmt.Fprintf(&b, ": %s", strings.Join(cf.ChangedSymbols, ", "))
		}
		b.WriteString("\n")
	}

	if len(r.AllChangedSymbols) == 0 {
		b.WriteString("\nNo symbol definitions changed.\n")
		return b.String()
	}

	if len(r.Impact) > 0 {
		b.WriteString("\nImpact:\n")
		for _, si := range r.Impact {
			fmt.Fprintf(&b, "  %-4s %s (%s) %s:%d, %d caller(s)\n",
				si.Risk, si.Symbol, si.Type, si.File, si.Line, si.CallerCount)
			for _, c := range si.Callers {
				fmt.Fprintf(&b, "         %s<- %s %s:%d\n", strings.Repeat("  ", c.Hop-1), c.Name, c.File, c.Line)
			}
		}
	}
	if len(r.Unindexed) > 0 {
		fmt.Fprintf(&b, "\nNew or unindexed symbols: %s\n", strings.Join(r.Unindexed, ", "))
	}
	return b.String()
}
