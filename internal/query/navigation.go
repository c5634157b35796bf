package query

import (
	"context"
	"path/filepath"
	"strings"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
	"hammy/internal/paths"
	"hammy/internal/search"
)

// ASTFilter selects which nodes an AST query returns.
type ASTFilter string

const (
	ASTAll       ASTFilter = "all"
	ASTClasses   ASTFilter = "classes"
	ASTFunctions ASTFilter = "functions"
	ASTMethods   ASTFilter = "methods"
	ASTEndpoints ASTFilter = "endpoints"
	ASTImports   ASTFilter = "imports"
)

var astNodeTypes = map[ASTFilter]graph.NodeType{
	ASTClasses:   graph.NodeClass,
	ASTFunctions: graph.NodeFunction,
	ASTMethods:   graph.NodeMethod,
	ASTEndpoints: graph.NodeEndpoint,
}

// ParseASTFilter accepts the filter names ignoring case; empty means all.
func ParseASTFilter(s string) (ASTFilter, error) {
	f := ASTFilter(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return ASTAll, nil
	}
	if _, ok := astNodeTypes[f]; ok || f == ASTAll || f == ASTImports {
		return f, nil
	}
	return "", hammyerrors.Newf(hammyerrors.InvalidArgument,
		"unknown AST filter %q (want all, classes, functions, methods, endpoints or imports)", s)
}

// ASTResponse lists the code elements of one file.
type ASTResponse struct {
	File    string        `json:"file"`
	Filter  ASTFilter     `json:"filter"`
	Live    bool          `json:"live"`
	Nodes   []*graph.Node `json:"nodes"`
	Imports []string      `json:"imports,omitempty"`
}

// AST returns the nodes of file matching filter, or for ASTImports the
// contexts of its import edges. With an extractor the file is parsed from
// disk; otherwise the snapshot's copy is used.
func (e *Engine) AST(ctx context.Context, file string, filter ASTFilter) (*ASTResponse, error) {
	if filter == "" {
		filter = ASTAll
	}
	if _, err := ParseASTFilter(string(filter)); err != nil {
		return nil, err
	}
	rel := paths.NormalizePath(file)

	var (
		nodes []*graph.Node
		edges []graph.Edge
		live  bool
	)
	if e.extractor != nil {
		res, err := e.extractor.ExtractFile(ctx, filepath.Join(e.root, filepath.FromSlash(rel)), rel)
		if err != nil {
			return nil, err
		}
		nodes, edges, live = res.Nodes, res.Edges, true
	} else {
		snap := e.Snapshot()
		if !snap.HasFile(rel) {
			return nil, hammyerrors.Newf(hammyerrors.FileNotFound, "file not indexed: %s", rel)
		}
		nodes, edges = snap.NodesInFile(rel), snap.FileEdges(rel)
	}

	resp := &ASTResponse{File: rel, Filter: filter, Live: live, Nodes: []*graph.Node{}}
	if filter == ASTImports {
		resp.Imports = []string{}
		for _, ed := range edges {
			if ed.Relation == graph.RelImports {
				resp.Imports = append(resp.Imports, ed.Metadata.Context)
			}
		}
		return resp, nil
	}

	want, typed := astNodeTypes[filter]
	for _, n := range nodes {
		if typed && n.Type != want {
			continue
		}
		resp.Nodes = append(resp.Nodes, n)
	}
	return resp, nil
}

// FilesResponse lists indexed files.
type FilesResponse struct {
	Language string             `json:"language,omitempty"`
	Files    []search.FileEntry `json:"files"`
}

// Files lists indexed files, optionally only those holding language nodes.
func (e *Engine) Files(language string) *FilesResponse {
	return &FilesResponse{Language: language, Files: search.ListFiles(e.Snapshot(), language)}
}

// SymbolsResponse is a substring symbol search.
type SymbolsResponse struct {
	Query string `json:"query"`
	search.SymbolMatches
}

// Symbols finds nodes whose name or summary contains q.
func (e *Engine) Symbols(q string, opts search.Options, limit int) (*SymbolsResponse, error) {
	if strings.TrimSpace(q) == "" {
		return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "symbol query must not be empty")
	}
	return &SymbolsResponse{
		Query:         q,
		SymbolMatches: search.SearchSymbols(e.Snapshot(), q, opts, limit),
	}, nil
}
