package diff

import (
	"sort"

	"hammy/internal/impact"
)

// DefaultDepth is how many caller hops a diff analysis walks.
const DefaultDepth = 2

// Analyze parses text and walks the callers of every changed symbol found
// in the analyzer's graph. depth <= 0 means DefaultDepth.
func Analyze(text string, a *impact.Analyzer, depth int) *Report {
	if depth <= 0 {
		depth = DefaultDepth
	}
	report := &Report{
		ChangedFiles:      Parse(text),
		AllChangedSymbols: []string{},
		Impact:            []SymbolImpact{},
		Unindexed:         []string{},
	}

	all := newSymbolSet()
	for _, cf := range report.ChangedFiles {
		all.add(cf.ChangedSymbols...)
	}
	report.AllChangedSymbols = all.names

	seen := make(map[string]bool)
	for _, sym := range report.AllChangedSymbols {
		nodes := a.Index().Lookup(sym)
		if len(nodes) == 0 {
			report.Unindexed = append(report.Unindexed, sym)
			continue
		}
		for _, n := range nodes {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			callers := a.CallersOf(n, depth)
			report.Impact = append(report.Impact, SymbolImpact{
				Symbol:      n.Name,
				NodeID:      n.ID,
				Type:        string(n.Type),
				File:        n.Loc.File,
				Line:        n.StartLine(),
				CallerCount: len(callers),
				Callers:     callers,
				Risk:        impact.ClassifyRisk(len(callers)),
				Summary:     n.Summary,
				Visibility:  n.Meta.Visibility,
			})
		}
	}

	sort.SliceStable(report.Impact, func(i, j int) bool {
		return report.Impact[i].CallerCount > report.Impact[j].CallerCount
	})
	return report
}
