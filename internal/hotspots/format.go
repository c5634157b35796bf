package hotspots

import (
	"fmt"
	"strings"
)

// FormatRows renders a ranking as a fixed-width table.
func FormatRows(rows []Row) string {
	if len(rows) == 0 {
		return "No hotspots found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %7s %7s %6s  %-40s %s\n", "#", "score", "callers", "churn", "symbol", "location")
	for i, r := range rows {
		fmt.Fprintf(&b, "%-4d %7.2f %7d %6d  %-40s %s:%d\n",
			i+1, r.Score, r.CallerCount, r.ChurnRate, truncate(r.Name, 40), r.File, r.Lines[0])
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
