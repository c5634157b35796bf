package search

import (
	"sort"
	"strings"

	"hammy/internal/graph"
)

// DefaultSymbolLimit caps SearchSymbols results.
const DefaultSymbolLimit = 30

// SymbolMatches is the outcome of a substring symbol search.
type SymbolMatches struct {
	Symbols []*graph.Node `json:"symbols"`
	// Total counts every match, including those past the limit.
	Total int `json:"total"`
}

// SearchSymbols returns nodes whose name or summary contains query,
// case-insensitively, in snapshot order. limit <= 0 uses DefaultSymbolLimit.
func SearchSymbols(snap *graph.Snapshot, query string, opts Options, limit int) SymbolMatches {
	if limit <= 0 {
		limit = DefaultSymbolLimit
	}
	q := strings.ToLower(query)
	res := SymbolMatches{Symbols: []*graph.Node{}}
	for _, n := range snap.Nodes() {
		if !opts.accepts(n) {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Name), q) && !strings.Contains(strings.ToLower(n.Summary), q) {
			continue
		}
		res.Total++
		if len(res.Symbols) < limit {
			res.Symbols = append(res.Symbols, n)
		}
	}
	return res
}

// FileEntry is one indexed file and the languages of its nodes.
type FileEntry struct {
	Path      string   `json:"path"`
	Languages []string `json:"languages"`
	Nodes     int      `json:"nodes"`
}

// ListFiles lists indexed files sorted by path, optionally restricted to
// files holding nodes of language.
func ListFiles(snap *graph.Snapshot, language string) []FileEntry {
	type acc struct {
		langs map[string]bool
		nodes int
	}
	files := make(map[string]*acc)
	for _, n := range snap.Nodes() {
		if language != "" && !strings.EqualFold(n.Language, language) {
			continue
		}
		a, ok := files[n.Loc.File]
		if !ok {
			a = &acc{langs: make(map[string]bool)}
			files[n.Loc.File] = a
		}
		a.langs[n.Language] = true
		a.nodes++
	}

	out := make([]FileEntry, 0, len(files))
	for path, a := range files {
		langs := make([]string, 0, len(a.langs))
		for l := range a.langs {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		out = append(out, FileEntry{Path: path, Languages: langs, Nodes: a.nodes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
