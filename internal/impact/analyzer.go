package impact

import (
	"sort"
	"strings"

	"hammy/internal/graph"
	"hammy/internal/resolve"
)

// Analyzer runs call-graph queries against one immutable snapshot.
type Analyzer struct {
	snap  *graph.Snapshot
	index *resolve.Index
	words *resolve.WordMatcher
	calls []graph.Edge
}

// NewAnalyzer creates an analyzer. index must have been built from snap.
func NewAnalyzer(snap *graph.Snapshot, index *resolve.Index, words *resolve.WordMatcher) *Analyzer {
	if words == nil {
		words = resolve.NewWordMatcher(0)
	}
	return &Analyzer{
		snap:  snap,
		index: index,
		words: words,
		calls: snap.EdgesOf(graph.RelCalls),
	}
}

// FindUsages returns one row per call edge whose context contains name as
// a whole word, case-insensitively. fileFilter, when set, keeps callers
// whose file contains it, case-insensitively. No match is an empty slice.
func (a *Analyzer) FindUsages(name, fileFilter string) []Usage {
	out := []Usage{}
	if strings.TrimSpace(name) == "" {
		return out
	}
	filter := strings.ToLower(fileFilter)
	for _, e := range a.calls {
		if !a.words.Match(name, e.Metadata.Context) {
			continue
		}
		caller, ok := a.snap.Node(e.Source)
		if !ok {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(caller.Loc.File), filter) {
			continue
		}
		out = append(out, Usage{
			Caller:  caller.Name,
			Type:    string(caller.Type),
			File:    caller.Loc.File,
			Line:    caller.StartLine(),
			Context: e.Metadata.Context,
		})
	}
	return out
}

// Analyze walks the call graph from name. depth is clamped into
// [MinDepth, MaxDepth].
func (a *Analyzer) Analyze(name string, depth int, dir Direction) *Result {
	depth = ClampDepth(depth)
	res := &Result{
		Symbol:    name,
		Depth:     depth,
		Direction: dir,
		Found:     len(a.index.Lookup(name)) > 0,
		Callers:   []Affected{},
		Callees:   []Affected{},
	}
	if dir == Callers || dir == Both {
		res.Callers = a.Callers(name, depth)
	}
	if dir == Callees || dir == Both {
		res.Callees = a.Callees(name, depth)
	}
	return res
}

// Callers returns the transitive callers of name, breadth first. Each hop
// matches the current frontier names against call contexts on word
// boundaries; the callers found become the next frontier by name.
func (a *Analyzer) Callers(name string, depth int) []Affected {
	visited := make(map[string]bool)
	for _, n := range a.index.Exact(name) {
		visited[n.ID] = true
	}
	return a.walkCallers([]string{name}, visited, depth)
}

// CallersOf is Callers for one known node. The walk starts from both its
// full and bare name, so "Cart.checkout" also matches "this.checkout()".
func (a *Analyzer) CallersOf(n *graph.Node, depth int) []Affected {
	start := map[string]bool{n.Name: true, resolve.BareName(n.Name): true}
	return a.walkCallers(sortedKeys(start), map[string]bool{n.ID: true}, depth)
}

func (a *Analyzer) walkCallers(frontier []string, visited map[string]bool, depth int) []Affected {
	depth = ClampDepth(depth)
	out := []Affected{}

	for hop := 1; hop <= depth && len(frontier) > 0; hop++ {
		next := make(map[string]bool)
		for _, e := range a.calls {
			if _, ok := a.words.MatchAny(frontier, e.Metadata.Context); !ok {
				continue
			}
			caller, ok := a.snap.Node(e.Source)
			if !ok || visited[caller.ID] {
				continue
			}
			visited[caller.ID] = true
			out = append(out, affected(caller, hop))
			next[caller.Name] = true
			next[resolve.BareName(caller.Name)] = true
		}
		frontier = sortedKeys(next)
	}
	return out
}

// Callees returns what name calls, transitively. Seeds are the nodes
// named name, falling back to bare-name matches when none is.
func (a *Analyzer) Callees(name string, depth int) []Affected {
	depth = ClampDepth(depth)
	out := []Affected{}

	seeds := a.index.Exact(name)
	if len(seeds) == 0 {
		seeds = a.index.Lookup(name)
	}
	visited := make(map[string]bool, len(seeds))
	frontier := make([]string, 0, len(seeds))
	for _, n := range seeds {
		visited[n.ID] = true
		frontier = append(frontier, n.ID)
	}

	for hop := 1; hop <= depth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			var lang string
			if n, ok := a.snap.Node(id); ok {
				lang = n.Language
			}
			for _, e := range a.snap.Outgoing(id) {
				if e.Relation != graph.RelCalls {
					continue
				}
				for _, callee := range a.index.LookupFrom(resolve.CalleeName(e.Metadata.Context), lang) {
					if visited[callee.ID] {
						continue
					}
					visited[callee.ID] = true
					out = append(out, affected(callee, hop))
					next = append(next, callee.ID)
				}
			}
		}
		frontier = next
	}
	return out
}

func affected(n *graph.Node, hop int) Affected {
	return Affected{
		ID:   n.ID,
		Name: n.Name,
		Type: string(n.Type),
		File: n.Loc.File,
		Line: n.StartLine(),
		Hop:  hop,
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Index returns the name index the analyzer resolves through.
func (a *Analyzer) Index() *resolve.Index { return a.index }
