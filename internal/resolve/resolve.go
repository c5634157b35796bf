// Package resolve is the name-resolution pass over extracted references.
//
// Extractors emit call edges whose target is an unscoped id and whose
// context carries the textual reference. Two matching rules read that
// text and they deliberately disagree:
//
//   - WordMatcher finds a name anywhere in the context on word boundaries.
//     Usages and caller-direction impact use it.
//   - CalleeName reduces the context to the bare token being called.
//     Callee-direction impact and hotspot attribution pair it with
//     Index.LookupFrom; diff symbol lookup uses Index.Lookup.
//
// A context like "repo.save(x)" matches WordMatcher for "save" and "repo"
// but its CalleeName is only "save".
package resolve

import (
	"sort"
	"strings"

	"hammy/internal/graph"
)

// Index maps lowercase symbol names to the set of nodes carrying them.
// Names are indexed twice: in full ("Cart.checkout") and bare ("checkout").
type Index struct {
	full map[string][]*graph.Node
	bare map[string][]*graph.Node
	byID map[string]*graph.Node
}

// NewIndex indexes every non-endpoint, non-file node in nodes.
func NewIndex(nodes []*graph.Node) *Index {
	ix := &Index{
		full: make(map[string][]*graph.Node),
		bare: make(map[string][]*graph.Node),
		byID: make(map[string]*graph.Node, len(nodes)),
	}
	for _, n := range nodes {
		if n.Type == graph.NodeEndpoint || n.Type == graph.NodeFile {
			continue
		}
		ix.byID[n.ID] = n
		full := strings.ToLower(n.Name)
		ix.full[full] = append(ix.full[full], n)
		if b := strings.ToLower(BareName(n.Name)); b != full {
			ix.bare[b] = append(ix.bare[b], n)
		}
	}
	return ix
}

// ForSnapshot indexes a snapshot's nodes.
func ForSnapshot(s *graph.Snapshot) *Index {
	return NewIndex(s.Nodes())
}

// Exact returns nodes whose full name equals name, ignoring case.
func (ix *Index) Exact(name string) []*graph.Node {
	return sorted(ix.full[strings.ToLower(name)])
}

// Lookup returns every candidate for a reference: nodes whose full name
// or bare name equals name, ignoring case. The result is sorted by id and
// may hold several nodes; ambiguity is left to the caller.
func (ix *Index) Lookup(name string) []*graph.Node {
	key := strings.ToLower(name)
	if key == "" {
		return nil
	}
	full, bare := ix.full[key], ix.bare[key]
	if len(bare) == 0 {
		return sorted(full)
	}
	seen := make(map[string]bool, len(full)+len(bare))
	out := make([]*graph.Node, 0, len(full)+len(bare))
	for _, list := range [][]*graph.Node{full, bare} {
		for _, n := range list {
			if !seen[n.ID] {
				seen[n.ID] = true
				out = append(out, n)
			}
		}
	}
	return sorted(out)
}

// LookupFrom resolves a reference made from code in language. Candidates
// in the same language win; only when there are none does it fall back to
// every Lookup match, which is how cross-language name collisions still
// surface.
func (ix *Index) LookupFrom(name, language string) []*graph.Node {
	all := ix.Lookup(name)
	if language == "" || len(all) < 2 {
		return all
	}
	same := make([]*graph.Node, 0, len(all))
	for _, n := range all {
		if n.Language == language {
			same = append(same, n)
		}
	}
	if len(same) == 0 {
		return all
	}
	return same
}

// Node returns an indexed node by id.
func (ix *Index) Node(id string) (*graph.Node, bool) {
	n, ok := ix.byID[id]
	return n, ok
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.byID) }

func sorted(nodes []*graph.Node) []*graph.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := append([]*graph.Node(nil), nodes...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func isSeparator(r rune) bool {
	switch r {
	case '.', ':', '\\', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// BareName returns the last segment of a qualified symbol name, so
// "App\Http\UserController::show" and "Cart.checkout" become "show" and
// "checkout".
func BareName(name string) string {
	i := strings.LastIndexFunc(name, isSeparator)
	if i < 0 {
		return name
	}
	return name[i+1:]
}

// CalleeName returns the bare callee token of a call context. The context
// is cut at its first "(" and the last segment after ".", ":", "\" or
// whitespace is returned: "this.repo.save(x)" yields "save" and
// "User::find" yields "find".
func CalleeName(context string) string {
	if i := strings.IndexByte(context, '('); i >= 0 {
		context = context[:i]
	}
	return strings.TrimSpace(BareName(strings.TrimSpace(context)))
}
