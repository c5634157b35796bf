// Package export writes a graph snapshot out of hammy: as JSON (optionally
// zstd-compressed), as a SCIP index, or as a compact text outline for
// pasting into an LLM context window.
package export

import "hammy/internal/graph"

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONZstd Format = "json.zst"
	FormatSCIP     Format = "scip"
	FormatText     Format = "text"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, bool) {
	switch f := Format(s); f {
	case FormatJSON, FormatJSONZstd, FormatSCIP, FormatText:
		return f, true
	case "zst", "zstd":
		return FormatJSONZstd, true
	}
	return "", false
}

// Export is the JSON document shape.
type Export struct {
	Metadata    Metadata     `json:"metadata"`
	Directories []Directory  `json:"directories"`
	Bridges     []graph.Edge `json:"bridges"`
}

// Metadata describes an export.
type Metadata struct {
	Project     string `json:"project"`
	Tool        string `json:"tool"`
	Generated   string `json:"generated"` // RFC 3339
	Version     uint64 `json:"snapshot_version"`
	FileCount   int    `json:"file_count"`
	SymbolCount int    `json:"symbol_count"`
	EdgeCount   int    `json:"edge_count"`
	BridgeCount int    `json:"bridge_count"`
}

// Directory groups the files of one directory.
type Directory struct {
	Path  string `json:"path"`
	Files []File `json:"files"`
}

// File is one source file with the symbols and edges it owns.
type File struct {
	Path     string       `json:"path"`
	Language string       `json:"language"`
	Symbols  []Symbol     `json:"symbols"`
	Edges    []graph.Edge `json:"edges"`
}

// Symbol is a node flattened for export.
type Symbol struct {
	ID         string         `json:"id"`
	Type       graph.NodeType `json:"type"`
	Name       string         `json:"name"`
	Line       int            `json:"line"`
	EndLine    int            `json:"end_line"`
	Complexity int            `json:"complexity,omitempty"`
	Parameters []string       `json:"parameters,omitempty"`
	ReturnType string         `json:"return_type,omitempty"`
	Visibility string         `json:"visibility,omitempty"`
	IsAsync    bool           `json:"is_async,omitempty"`
	Summary    string         `json:"summary,omitempty"`
}

// Options configures an export.
type Options struct {
	Project       string
	Types         []graph.NodeType // empty keeps every type
	MinComplexity int              // drop functions below this score
	MaxSymbols    int              // 0 means unlimited
	IncludeEdges  bool
}
