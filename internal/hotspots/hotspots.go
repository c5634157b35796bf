// Package hotspots ranks symbols by how many callers depend on them and how
// often their file changes.
package hotspots

import (
	"math"
	"sort"
	"strings"

	"hammy/internal/graph"
	"hammy/internal/resolve"
)

const (
	DefaultTopN = 20
	MaxTopN     = 200
)

// Options filters and sizes a hotspot ranking.
type Options struct {
	TopN       int
	NodeType   string
	Language   string
	FileFilter string
	// FileChurn maps a file path to its commit count. When nil, churn is
	// read from node history.
	FileChurn map[string]int
}

// Row is one ranked symbol.
type Row struct {
	NodeID      string  `json:"node_id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	File        string  `json:"file"`
	Lines       [2]int  `json:"lines"`
	Language    string  `json:"language"`
	CallerCount int     `json:"caller_count"`
	ChurnRate   int     `json:"churn_rate"`
	Score       float64 `json:"score"`
	Visibility  string  `json:"visibility,omitempty"`
	IsAsync     bool    `json:"is_async"`
	Summary     string  `json:"summary,omitempty"`
	Complexity  *int    `json:"complexity,omitempty"`
}

// ClampTopN returns DefaultTopN for n <= 0 and caps n at MaxTopN.
func ClampTopN(n int) int {
	if n <= 0 {
		return DefaultTopN
	}
	if n > MaxTopN {
		return MaxTopN
	}
	return n
}

// Score combines caller count and churn. Churn is floored at 1 so a symbol
// without history still scores on callers alone; callers are not floored,
// so a symbol nobody calls always scores 0.
func Score(callers, churn int) float64 {
	return math.Log2(1+float64(callers)) * math.Log2(1+float64(max(churn, 1)))
}

// CallerCounts attributes every call edge to the nodes its bare callee
// name resolves to, preferring the caller's language, and returns the
// number of distinct callers per node id.
func CallerCounts(snap *graph.Snapshot, index *resolve.Index) map[string]int {
	callers := make(map[string]map[string]struct{})
	for _, e := range snap.EdgesOf(graph.RelCalls) {
		name := resolve.CalleeName(e.Metadata.Context)
		if name == "" {
			continue
		}
		var lang string
		if src, ok := snap.Node(e.Source); ok {
			lang = src.Language
		}
		for _, n := range index.LookupFrom(name, lang) {
			set, ok := callers[n.ID]
			if !ok {
				set = make(map[string]struct{})
				callers[n.ID] = set
			}
			set[e.Source] = struct{}{}
		}
	}
	counts := make(map[string]int, len(callers))
	for id, set := range callers {
		counts[id] = len(set)
	}
	return counts
}

// Compute ranks the snapshot's nodes by Score, highest first, ties broken
// by caller count and then by name.
func Compute(snap *graph.Snapshot, index *resolve.Index, opts Options) []Row {
	topN := ClampTopN(opts.TopN)
	filter := strings.ToLower(opts.FileFilter)

	var candidates []*graph.Node
	for _, n := range snap.Nodes() {
		if opts.NodeType != "" && string(n.Type) != opts.NodeType {
			continue
		}
		if opts.Language != "" && n.Language != opts.Language {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(n.Loc.File), filter) {
			continue
		}
		candidates = append(candidates, n)
	}
	if len(candidates) == 0 {
		return []Row{}
	}

	counts := CallerCounts(snap, index)
	rows := make([]Row, 0, len(candidates))
	for _, n := range candidates {
		churn := churnOf(n, opts.FileChurn)
		callers := counts[n.ID]
		rows = append(rows, Row{
			NodeID:      n.ID,
			Name:        n.Name,
			Type:        string(n.Type),
			File:        n.Loc.File,
			Lines:       n.Loc.Lines,
			Language:    n.Language,
			CallerCount: callers,
			ChurnRate:   churn,
			Score:       Score(callers, churn),
			Visibility:  n.Meta.Visibility,
			IsAsync:     n.Meta.IsAsync,
			Summary:     n.Summary,
			Complexity:  n.Meta.ComplexityScore,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.CallerCount != b.CallerCount {
			return a.CallerCount > b.CallerCount
		}
		return a.Name < b.Name
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

func churnOf(n *graph.Node, fileChurn map[string]int) int {
	if fileChurn != nil {
		return fileChurn[n.Loc.File]
	}
	if n.History != nil {
		return n.History.ChurnRate
	}
	return 0
}
