// Package graph holds the language-agnostic property graph of code entities.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
)

// NodeType classifies a code entity.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeClass     NodeType = "class"
	NodeMethod    NodeType = "method"
	NodeFunction  NodeType = "function"
	NodeVariable  NodeType = "variable"
	NodeEndpoint  NodeType = "endpoint"
	NodeTable     NodeType = "table"
	NodeInterface NodeType = "interface"
)

// NodeTypes lists every node type.
var NodeTypes = []NodeType{NodeFile, NodeClass, NodeMethod, NodeFunction, NodeVariable, NodeEndpoint, NodeTable, NodeInterface}

// ParseNodeType converts a string to a NodeType.
func ParseNodeType(s string) (NodeType, bool) {
	for _, t := range NodeTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// RelationType classifies an edge.
type RelationType string

const (
	RelCalls      RelationType = "calls"
	RelImports    RelationType = "imports"
	RelImplements RelationType = "implements"
	RelDefines    RelationType = "defines"
	RelNetworksTo RelationType = "networks_to"
	RelExtends    RelationType = "extends"
)

// DefaultConfidence is the confidence of an edge nobody qualified.
const DefaultConfidence = 1.0

// Location is a file and an inclusive 1-indexed line range.
type Location struct {
	File  string `json:"file"`
	Lines [2]int `json:"lines"`
}

// NodeMeta carries optional per-symbol facts.
type NodeMeta struct {
	Visibility      string   `json:"visibility,omitempty"`
	IsAsync         bool     `json:"is_async"`
	ComplexityScore *int     `json:"complexity_score,omitempty"`
	Parameters      []string `json:"parameters"`
	ReturnType      string   `json:"return_type,omitempty"`
}

// History is VCS-derived context supplied by an external provider.
type History struct {
	ChurnRate   int      `json:"churn_rate"`
	BlameOwners []string `json:"blame_owners"`
	IntentLogs  []string `json:"intent_logs"`
}

// Node is one code entity.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Name     string   `json:"name"`
	Loc      Location `json:"loc"`
	Language string   `json:"language"`
	Meta     NodeMeta `json:"meta"`
	Summary  string   `json:"summary,omitempty"`
	History  *History `json:"history,omitempty"`
}

// File is shorthand for n.Loc.File.
func (n *Node) File() string { return n.Loc.File }

// StartLine is shorthand for n.Loc.Lines[0].
func (n *Node) StartLine() int { return n.Loc.Lines[0] }

// EdgeMetadata qualifies an edge.
type EdgeMetadata struct {
	IsBridge   bool    `json:"is_bridge"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context,omitempty"`
}

// Edge is a directed relation between two ids. Either end may be
// unresolved: an id with no Node behind it.
type Edge struct {
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Relation RelationType `json:"relation"`
	Metadata EdgeMetadata `json:"metadata"`
}

// NewEdge creates an edge with default metadata.
func NewEdge(source, target string, rel RelationType) Edge {
	return Edge{
		Source:   source,
		Target:   target,
		Relation: rel,
		Metadata: EdgeMetadata{Confidence: DefaultConfidence},
	}
}

// WithContext sets the edge context.
func (e Edge) WithContext(ctx string) Edge {
	e.Metadata.Context = ctx
	return e
}

// WithConfidence sets the edge confidence.
func (e Edge) WithConfidence(c float64) Edge {
	e.Metadata.Confidence = c
	return e
}

// FileSymbol is the pseudo-symbol name used for file-level edge ends.
const FileSymbol = "__file__"

// EndpointPrefix prefixes endpoint symbol names before hashing.
const EndpointPrefix = "endpoint:"

// MakeID returns the first 16 hex characters of sha256("file::name").
// Truncation makes collisions possible, though unlikely at repo scale.
func MakeID(file, name string) string {
	sum := sha256.Sum256([]byte(file + "::" + name))
	return hex.EncodeToString(sum[:])[:16]
}

// FileID is the id of a file's pseudo-symbol.
func FileID(file string) string { return MakeID(file, FileSymbol) }

// EndpointID is the id of an endpoint declared or called in file.
func EndpointID(file, route string) string { return MakeID(file, EndpointPrefix+route) }

// UnscopedID is the id of a name referenced without a known file.
func UnscopedID(name string) string { return MakeID("", name) }
