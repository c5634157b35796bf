// Package extract turns parsed syntax trees into graph nodes and edges,
// one extractor per language.
package extract

import (
	"fmt"
	"sort"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/grammar"
	"hammy/internal/graph"
)

// Result is everything one file contributes to the graph.
type Result struct {
	Nodes []*graph.Node
	Edges []graph.Edge
}

// Extractor converts one parsed file. It must not retain tree.
type Extractor func(tree *grammar.Tree, file string) Result

var builtin = map[grammar.Language]Extractor{
	grammar.PHP:        extractPHP,
	grammar.JavaScript: extractJavaScript,
	grammar.TypeScript: extractTypeScript,
	grammar.Python:     extractPython,
	grammar.Go:         extractGo,
}

// Registry dispatches trees to the extractor for their language.
type Registry struct {
	extractors map[grammar.Language]Extractor
}

// NewRegistry builds a registry for langs, or for every supported
// language when langs is empty.
func NewRegistry(langs ...grammar.Language) (*Registry, error) {
	if len(langs) == 0 {
		langs = grammar.Languages
	}
	r := &Registry{extractors: make(map[grammar.Language]Extractor, len(langs))}
	for _, l := range langs {
		ex, ok := builtin[l]
		if !ok {
			return nil, hammyerrors.Newf(hammyerrors.UnsupportedLanguage, "no extractor for language %q", l)
		}
		r.extractors[l] = ex
	}
	return r, nil
}

// Languages returns the enabled languages, sorted.
func (r *Registry) Languages() []grammar.Language {
	out := make([]grammar.Language, 0, len(r.extractors))
	for l := range r.extractors {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Supports reports whether lang is enabled.
func (r *Registry) Supports(lang grammar.Language) bool {
	_, ok := r.extractors[lang]
	return ok
}

// Extract runs the extractor for tree.Language. A panicking extractor is
// reported as an error instead of taking the caller down.
func (r *Registry) Extract(tree *grammar.Tree, file string) (res Result, err error) {
	ex, ok := r.extractors[tree.Language]
	if !ok {
		return Result{}, hammyerrors.Newf(hammyerrors.UnsupportedLanguage, "language %q not enabled", tree.Language)
	}
	defer func() {
		if p := recover(); p != nil {
			res = Result{}
			err = hammyerrors.New(hammyerrors.ParseFailed, "extract "+file, fmt.Errorf("panic: %v", p))
		}
	}()
	return ex(tree, file), nil
}
