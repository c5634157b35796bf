package graph

import (
	"sort"
	"sync/atomic"
	"time"
)

// Graph is the mutable node and edge collection. It is not safe for
// concurrent use; readers work on Snapshots.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]Edge    // owning file -> extracted edges
	owned   map[string][]string  // owning file -> node ids
	bridges []Edge
	version atomic.Uint64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]Edge),
		owned: make(map[string][]string),
	}
}

// AddFile records one extraction result for file, replacing anything the
// file previously owned.
func (g *Graph) AddFile(file string, nodes []*Node, edges []Edge) {
	g.RemoveFile(file)

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := g.nodes[n.ID]; !dup {
			ids = append(ids, n.ID)
		}
		g.nodes[n.ID] = n
	}
	if len(ids) > 0 {
		g.owned[file] = ids
	}
	if len(edges) > 0 {
		g.edges[file] = append([]Edge(nil), edges...)
	}
	g.version.Add(1)
}

// RemoveFile drops every node owned by file, every edge the file's
// extraction produced, and every bridge edge touching a dropped node.
// It returns the removed node ids.
func (g *Graph) RemoveFile(file string) []string {
	ids, hadNodes := g.owned[file]
	_, hadEdges := g.edges[file]
	if !hadNodes && !hadEdges {
		return nil
	}

	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		delete(g.nodes, id)
		removed[id] = struct{}{}
	}
	delete(g.owned, file)
	delete(g.edges, file)

	if len(removed) > 0 {
		for f, es := range g.edges {
			g.edges[f] = dropTouching(es, removed)
		}
		g.bridges = dropTouching(g.bridges, removed)
	}
	g.version.Add(1)
	return ids
}

func dropTouching(edges []Edge, ids map[string]struct{}) []Edge {
	kept := edges[:0]
	for _, e := range edges {
		_, s := ids[e.Source]
		_, t := ids[e.Target]
		if !s && !t {
			kept = append(kept, e)
		}
	}
	return kept
}

// SetBridges replaces the synthetic cross-language edge layer.
func (g *Graph) SetBridges(edges []Edge) {
	g.bridges = append([]Edge(nil), edges...)
	g.version.Add(1)
}

// HasFile reports whether file currently owns nodes or edges.
func (g *Graph) HasFile(file string) bool {
	_, n := g.owned[file]
	_, e := g.edges[file]
	return n || e
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Snapshot freezes the current state. Nodes are shared, so callers must
// treat them as read-only.
func (g *Graph) Snapshot() *Snapshot {
	files := make([]string, 0, len(g.owned)+len(g.edges))
	seen := make(map[string]struct{}, len(g.owned)+len(g.edges))
	for f := range g.owned {
		seen[f] = struct{}{}
		files = append(files, f)
	}
	for f := range g.edges {
		if _, ok := seen[f]; !ok {
			files = append(files, f)
		}
	}
	sort.Strings(files)

	var nodes []*Node
	var edges []Edge
	byFile := make(map[string][]string, len(files))
	fileEdges := make(map[string][]int, len(g.edges))
	for _, f := range files {
		ids := g.owned[f]
		for _, id := range ids {
			if n, ok := g.nodes[id]; ok {
				nodes = append(nodes, n)
			}
		}
		if len(ids) > 0 {
			byFile[f] = append([]string(nil), ids...)
		}
		for _, e := range g.edges[f] {
			fileEdges[f] = append(fileEdges[f], len(edges))
			edges = append(edges, e)
		}
	}
	bridgeAt := len(edges)
	edges = append(edges, g.bridges...)

	return newSnapshot(nodes, edges, byFile, fileEdges, bridgeAt, g.version.Load(), time.Now())
}
