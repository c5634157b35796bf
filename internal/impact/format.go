package impact

import (
	"fmt"
	"strings"
)

// FormatUsages renders call sites for a terminal.
func FormatUsages(name string, usages []Usage) string {
	if len(usages) == 0 {
		return fmt.Sprintf("No call sites found for '%s'.\n", name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Call sites of '%s':\n", name)
	for _, u := range usages {
		fmt.Fprintf(&b, "  %s (%s) %s:%d\n", u.Caller, u.Type, u.File, u.Line)
		if u.Context != "" {
			fmt.Fprintf(&b, "    %s\n", u.Context)
		}
	}
	return b.String()
}

// FormatImpact renders an impact walk as an indented list grouped by hop.
func FormatImpact(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Impact of '%s' (depth %d, %s)\n", r.Symbol, r.Depth, r.Direction)
	if !r.Found {
		b.WriteString("  symbol is not indexed; matching call contexts only\n")
	}
	if r.Direction == Callers || r.Direction == Both {
		writeAffected(&b, "Callers", r.Callers)
	}
	if r.Direction == Callees || r.Direction == Both {
		writeAffected(&b, "Callees", r.Callees)
	}
	return b.String()
}

func writeAffected(b *strings.Builder, title string, items []Affected) {
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	if len(items) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "  %s[%d] %s (%s) %s:%d\n", strings.Repeat("  ", it.Hop-1), it.Hop, it.Name, it.Type, it.File, it.Line)
	}
}
