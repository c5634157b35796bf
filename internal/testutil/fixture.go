// Package testutil provides graph fixtures, a deterministic embedder and
// golden-file helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"hammy/internal/graph"
)

// GraphBuilder assembles a graph file by file for tests.
type GraphBuilder struct {
	nodes map[string][]*graph.Node
	edges map[string][]graph.Edge
	order []string
}

// NewGraphBuilder returns an empty builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{
		nodes: make(map[string][]*graph.Node),
		edges: make(map[string][]graph.Edge),
	}
}

func (b *GraphBuilder) touch(file string) {
	if _, ok := b.nodes[file]; !ok {
		b.order = append(b.order, file)
		b.nodes[file] = nil
	}
}

// Node adds a node of type typ declared at line in file.
func (b *GraphBuilder) Node(file string, typ graph.NodeType, name, lang string, line int) *graph.Node {
	b.touch(file)
	n := &graph.Node{
		ID:       graph.MakeID(file, name),
		Type:     typ,
		Name:     name,
		Loc:      graph.Location{File: file, Lines: [2]int{line, line + 4}},
		Language: lang,
		Meta:     graph.NodeMeta{Parameters: []string{}},
	}
	b.nodes[file] = append(b.nodes[file], n)
	return n
}

// Func adds a function node.
func (b *GraphBuilder) Func(file, name, lang string, line int) *graph.Node {
	return b.Node(file, graph.NodeFunction, name, lang, line)
}

// Call adds a calls edge from caller to the unscoped callee with the given
// call expression as context.
func (b *GraphBuilder) Call(caller *graph.Node, callee, context string) {
	b.edges[caller.Loc.File] = append(b.edges[caller.Loc.File],
		graph.NewEdge(caller.ID, graph.UnscopedID(callee), graph.RelCalls).
			WithConfidence(0.8).
			WithContext(context))
}

// Edge adds an arbitrary edge owned by file.
func (b *GraphBuilder) Edge(file string, e graph.Edge) {
	b.touch(file)
	b.edges[file] = append(b.edges[file], e)
}

// Graph builds a mutable graph from everything added so far.
func (b *GraphBuilder) Graph() *graph.Graph {
	g := graph.New()
	for _, file := range b.order {
		g.AddFile(file, b.nodes[file], b.edges[file])
	}
	return g
}

// Snapshot builds an immutable snapshot.
func (b *GraphBuilder) Snapshot() *graph.Snapshot {
	return b.Graph().Snapshot()
}

// RenewalGraph is the small call chain most analytics tests share:
// handleRequest -> processRenewal -> getRenew -> query, plus an unrelated
// bulk -> saveAll call.
func RenewalGraph() *GraphBuilder {
	b := NewGraphBuilder()
	handle := b.Func("src/http.js", "handleRequest", "javascript", 3)
	process := b.Func("src/renewal.js", "processRenewal", "javascript", 10)
	getRenew := b.Func("src/store.js", "getRenew", "javascript", 20)
	b.Func("src/store.js", "query", "javascript", 40)
	bulk := b.Func("src/bulk.js", "bulk", "javascript", 1)

	process.Summary = "renews a subscription and charges the card"
	getRenew.Summary = "loads the renewal record"
	getRenew.Meta.Parameters = []string{"id"}

	b.Call(handle, "processRenewal", "processRenewal(req)")
	b.Call(process, "getRenew", "this.getRenew()")
	b.Call(getRenew, "query", "db.query(sql)")
	b.Call(bulk, "saveAll", "saveAll(x)")
	return b
}

// WriteTree writes files (relative path -> content) under root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, rel := range paths {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(strings.TrimLeft(files[rel], "\n")), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
}

// NodeNames returns the names of nodes in order.
func NodeNames(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}
