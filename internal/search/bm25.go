// Package search ranks graph nodes for free-text queries: BM25+ over a
// per-node document, optionally fused with a dense vector ranking through
// Reciprocal Rank Fusion, plus an MMR path for diversified semantic results.
package search

import (
	"math"
	"regexp"
	"strings"

	"hammy/internal/graph"
)

// BM25+ parameters.
const (
	K1    = 1.5
	B     = 0.75
	Delta = 1.0
)

var nonWord = regexp.MustCompile(`[^a-z0-9_]+`)

// Tokenize lowercases text, splits on runs of characters outside
// [A-Za-z0-9_] and drops tokens of length one or less.
func Tokenize(text string) []string {
	parts := nonWord.Split(strings.ToLower(text), -1)
	out := parts[:0]
	for _, p := range parts {
		if len(p) > 1 {
			out = append(out, p)
		}
	}
	return out
}

// Document is the searchable text of a node: type, name, summary,
// parameters and return type.
func Document(n *graph.Node) string {
	parts := []string{string(n.Type), n.Name}
	if n.Summary != "" {
		parts = append(parts, n.Summary)
	}
	parts = append(parts, n.Meta.Parameters...)
	if n.Meta.ReturnType != "" {
		parts = append(parts, n.Meta.ReturnType)
	}
	return strings.Join(parts, " ")
}

// BM25 is a BM25+ index over tokenized documents.
type BM25 struct {
	docs   []map[string]int
	lens   []int
	avgLen float64
	df     map[string]int
}

// NewBM25 indexes documents, each already tokenized.
func NewBM25(corpus [][]string) *BM25 {
	idx := &BM25{
		docs: make([]map[string]int, len(corpus)),
		lens: make([]int, len(corpus)),
		df:   make(map[string]int),
	}
	total := 0
	for i, tokens := range corpus {
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			idx.df[tok]++
		}
		idx.docs[i] = tf
		idx.lens[i] = len(tokens)
		total += len(tokens)
	}
	if len(corpus) > 0 {
		idx.avgLen = float64(total) / float64(len(corpus))
	}
	return idx
}

// Len returns the number of indexed documents.
func (idx *BM25) Len() int { return len(idx.docs) }

// IDF is ln((N+1)/df), which stays positive even when every document
// contains the term. Unknown terms have IDF 0.
func (idx *BM25) IDF(term string) float64 {
	df := idx.df[term]
	if df == 0 {
		return 0
	}
	return math.Log(float64(len(idx.docs)+1) / float64(df))
}

// Scores returns the BM25+ score of every document for the query tokens.
// The delta lower bound is only added for terms a document contains, so a
// document sharing no term with the query scores exactly 0.
func (idx *BM25) Scores(query []string) []float64 {
	scores := make([]float64, len(idx.docs))
	if idx.avgLen == 0 {
		return scores
	}
	for _, term := range query {
		idf := idx.IDF(term)
		if idf == 0 {
			continue
		}
		for i, tf := range idx.docs {
			f := float64(tf[term])
			if f == 0 {
				continue
			}
			norm := K1 * (1 - B + B*float64(idx.lens[i])/idx.avgLen)
			scores[i] += idf * (Delta + f*(K1+1)/(f+norm))
		}
	}
	return scores
}
