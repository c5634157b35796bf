package graph

import (
	"sort"
	"time"
)

// Snapshot is an immutable view of the graph with adjacency indexes.
type Snapshot struct {
	nodes     []*Node
	byID      map[string]*Node
	edges     []Edge
	out       map[string][]int
	in        map[string][]int
	byFile    map[string][]string
	fileEdges map[string][]int
	bridgeAt  int
	version   uint64
	createdAt time.Time
}

func newSnapshot(nodes []*Node, edges []Edge, byFile map[string][]string, fileEdges map[string][]int, bridgeAt int, version uint64, at time.Time) *Snapshot {
	s := &Snapshot{
		nodes:     nodes,
		byID:      make(map[string]*Node, len(nodes)),
		edges:     edges,
		out:       make(map[string][]int),
		in:        make(map[string][]int),
		byFile:    byFile,
		fileEdges: fileEdges,
		bridgeAt:  bridgeAt,
		version:   version,
		createdAt: at,
	}
	for _, n := range nodes {
		s.byID[n.ID] = n
	}
	for i, e := range edges {
		s.out[e.Source] = append(s.out[e.Source], i)
		s.in[e.Target] = append(s.in[e.Target], i)
	}
	return s
}

// Empty returns a snapshot with no content.
func Empty() *Snapshot {
	return newSnapshot(nil, nil, map[string][]string{}, map[string][]int{}, 0, 0, time.Now())
}

// Nodes returns all nodes in file order. Do not modify.
func (s *Snapshot) Nodes() []*Node { return s.nodes }

// Edges returns all edges, bridge edges last. Do not modify.
func (s *Snapshot) Edges() []Edge { return s.edges }

// Node looks up a node by id.
func (s *Snapshot) Node(id string) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// Outgoing returns edges whose source is id.
func (s *Snapshot) Outgoing(id string) []Edge { return s.pick(s.out[id]) }

// Incoming returns edges whose target is id.
func (s *Snapshot) Incoming(id string) []Edge { return s.pick(s.in[id]) }

func (s *Snapshot) pick(idx []int) []Edge {
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = s.edges[j]
	}
	return out
}

// EdgesOf returns every edge with the given relation.
func (s *Snapshot) EdgesOf(rel RelationType) []Edge {
	var out []Edge
	for _, e := range s.edges {
		if e.Relation == rel {
			out = append(out, e)
		}
	}
	return out
}

// NodesInFile returns the nodes owned by file.
func (s *Snapshot) NodesInFile(file string) []*Node {
	ids := s.byFile[file]
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.byID[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// FileEdges returns the extracted edges owned by file.
func (s *Snapshot) FileEdges(file string) []Edge { return s.pick(s.fileEdges[file]) }

// Bridges returns the synthetic bridge layer.
func (s *Snapshot) Bridges() []Edge { return s.edges[s.bridgeAt:] }

// HasFile reports whether file owns any nodes or extracted edges.
func (s *Snapshot) HasFile(file string) bool {
	_, n := s.byFile[file]
	_, e := s.fileEdges[file]
	return n || e
}

// Files returns every file owning nodes or extracted edges, sorted.
func (s *Snapshot) Files() []string {
	files := make([]string, 0, len(s.byFile))
	for f := range s.byFile {
		files = append(files, f)
	}
	for f := range s.fileEdges {
		if _, ok := s.byFile[f]; !ok {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files
}

// Version increases every time the source graph changes.
func (s *Snapshot) Version() uint64 { return s.version }

// CreatedAt is when the snapshot was taken.
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }

// NodeCount returns the number of nodes.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

// Stats summarizes a snapshot.
type Stats struct {
	Nodes       int              `json:"nodes"`
	Edges       int              `json:"edges"`
	Files       int              `json:"files"`
	BridgeEdges int              `json:"bridge_edges"`
	ByLanguage  map[string]int   `json:"by_language"`
	ByType      map[NodeType]int `json:"by_type"`
}

// Stats counts nodes by language and type.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		Nodes:      len(s.nodes),
		Edges:      len(s.edges),
		Files:      len(s.Files()),
		ByLanguage: make(map[string]int),
		ByType:     make(map[NodeType]int),
	}
	for _, n := range s.nodes {
		st.ByLanguage[n.Language]++
		st.ByType[n.Type]++
	}
	for _, e := range s.edges {
		if s.IsResolvedBridge(e) {
			st.BridgeEdges++
		}
	}
	return st
}

// IsResolvedBridge reports whether e links a consumer endpoint to a
// provider endpoint, as opposed to a call site reaching a consumer.
func (s *Snapshot) IsResolvedBridge(e Edge) bool {
	if !e.Metadata.IsBridge || e.Relation != RelNetworksTo {
		return false
	}
	src, ok := s.byID[e.Source]
	return ok && src.Type == NodeEndpoint
}
