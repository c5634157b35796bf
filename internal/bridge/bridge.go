// Package bridge links outbound HTTP call sites to route declarations in
// other languages.
package bridge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"hammy/internal/graph"
)

// Confidence levels a bridge can carry.
const (
	Exact    = 1.0
	Wildcard = 0.8
	NoMatch  = 0.0
)

// wildcardSegment is what path parameters normalize to.
const wildcardSegment = "*"

var (
	schemeHost    = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://[^/]*`)
	templateParam = regexp.MustCompile(`\$\{[^}]*\}`)
	braceParam    = regexp.MustCompile(`\{[^}]+\}`)
	angleParam    = regexp.MustCompile(`<[^>]+>`)
	colonParam    = regexp.MustCompile(`:\w+`)
)

// Normalize reduces a route or URL to a comparable form: scheme, host,
// query and fragment are dropped, surrounding slashes trimmed, parameter
// segments (${x}, {x}, <x>, :x) replaced with "*", and the result
// lowercased.
func Normalize(path string) string {
	path = schemeHost.ReplaceAllString(path, "")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	path = templateParam.ReplaceAllString(path, wildcardSegment)
	path = braceParam.ReplaceAllString(path, wildcardSegment)
	path = angleParam.ReplaceAllString(path, wildcardSegment)
	path = colonParam.ReplaceAllString(path, wildcardSegment)
	return strings.ToLower(path)
}

// Confidence compares two normalized paths. Identical paths score Exact;
// paths with equal segment counts whose every differing segment pair has a
// wildcard on one side score Wildcard; anything else scores NoMatch.
func Confidence(a, b string) float64 {
	if a == b {
		return Exact
	}
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	if len(as) != len(bs) {
		return NoMatch
	}
	for i := range as {
		if as[i] == bs[i] {
			continue
		}
		if as[i] != wildcardSegment && bs[i] != wildcardSegment {
			return NoMatch
		}
	}
	return Wildcard
}

// Endpoints partitions endpoint nodes into providers (targets of defines
// edges) and consumers (targets of bridge networks_to edges). An endpoint
// that is both is treated as a provider. Both lists are sorted by id.
func Endpoints(nodes []*graph.Node, edges []graph.Edge) (providers, consumers []*graph.Node) {
	defined := make(map[string]bool)
	called := make(map[string]bool)
	for _, e := range edges {
		switch {
		case e.Relation == graph.RelDefines:
			defined[e.Target] = true
		case e.Relation == graph.RelNetworksTo && e.Metadata.IsBridge:
			called[e.Target] = true
		}
	}

	for _, n := range nodes {
		if n.Type != graph.NodeEndpoint {
			continue
		}
		switch {
		case defined[n.ID]:
			providers = append(providers, n)
		case called[n.ID]:
			consumers = append(consumers, n)
		}
	}
	byID := func(list []*graph.Node) {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	byID(providers)
	byID(consumers)
	return providers, consumers
}

// Resolve returns one networks_to edge per matching (consumer, provider)
// pair of differing language, ordered by consumer id then provider id.
func Resolve(nodes []*graph.Node, edges []graph.Edge) []graph.Edge {
	providers, consumers := Endpoints(nodes, edges)
	if len(providers) == 0 || len(consumers) == 0 {
		return []graph.Edge{}
	}

	provPaths := make([]string, len(providers))
	for i, p := range providers {
		provPaths[i] = Normalize(p.Name)
	}

	out := []graph.Edge{}
	seen := make(map[[2]string]bool)
	for _, c := range consumers {
		cpath := Normalize(c.Name)
		for i, p := range providers {
			if c.Language == p.Language {
				continue
			}
			conf := Confidence(cpath, provPaths[i])
			if conf < Wildcard {
				continue
			}
			key := [2]string{c.ID, p.ID}
			if seen[key] {
				continue
			}
			seen[key] = true
			e := graph.NewEdge(c.ID, p.ID, graph.RelNetworksTo).
				WithConfidence(conf).
				WithContext(fmt.Sprintf("%s '%s' -> %s '%s'", c.Language, c.Name, p.Language, p.Name))
			e.Metadata.IsBridge = true
			out = append(out, e)
		}
	}
	return out
}

// ResolveSnapshot resolves bridges over a snapshot.
func ResolveSnapshot(s *graph.Snapshot) []graph.Edge {
	return Resolve(s.Nodes(), s.Edges())
}
