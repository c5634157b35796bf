package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"hammy/internal/config"
	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
	"hammy/internal/vectorstore"
)

// Limits for search result counts.
const (
	DefaultLimit = 10
	MaxLimit     = 100
	// candidateFactor is how many candidates per requested result each
	// source contributes before fusion.
	candidateFactor = 4
)

// ClampLimit maps limit into [1, MaxLimit]; non-positive means DefaultLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Options configures one search.
type Options struct {
	Limit    int
	Language string
	NodeType string
	// LexicalOnly skips the dense store even when one is configured.
	LexicalOnly bool
}

func (o Options) filters() vectorstore.Filters {
	return vectorstore.Filters{Language: o.Language, NodeType: o.NodeType}
}

func (o Options) accepts(n *graph.Node) bool {
	if o.Language != "" && !strings.EqualFold(n.Language, o.Language) {
		return false
	}
	if o.NodeType != "" && !strings.EqualFold(string(n.Type), o.NodeType) {
		return false
	}
	return true
}

// Searcher runs hybrid and semantic searches. The dense store is optional.
type Searcher struct {
	store  vectorstore.Store
	rrfK   int
	lambda float64
	logger *slog.Logger
}

// NewSearcher creates a searcher. store may be nil for lexical-only search.
func NewSearcher(store vectorstore.Store, cfg config.SearchConfig, logger *slog.Logger) *Searcher {
	return &Searcher{
		store:  store,
		rrfK:   cfg.RRFK,
		lambda: cfg.MMRLambda,
		logger: logger,
	}
}

// HasDense reports whether a dense store is configured.
func (s *Searcher) HasDense() bool { return s.store != nil }

// Lexical ranks the snapshot's nodes by BM25+ and keeps the best
// candidates with a positive score, at most keep of them.
func Lexical(snap *graph.Snapshot, query string, opts Options, keep int) []Result {
	var candidates []*graph.Node
	for _, n := range snap.Nodes() {
		if opts.accepts(n) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return []Result{}
	}

	corpus := make([][]string, len(candidates))
	for i, n := range candidates {
		corpus[i] = Tokenize(Document(n))
	}
	scores := NewBM25(corpus).Scores(Tokenize(query))

	ranked := make([]int, 0, len(candidates))
	for i, sc := range scores {
		if sc > 0 {
			ranked = append(ranked, i)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})
	if keep > 0 && len(ranked) > keep {
		ranked = ranked[:keep]
	}

	out := make([]Result, len(ranked))
	for i, idx := range ranked {
		out[i] = resultOf(candidates[idx], scores[idx])
	}
	return out
}

// Hybrid ranks nodes lexically and, when a dense store is configured,
// fuses the dense ranking in with RRF. A dense failure is logged and the
// lexical ranking is returned alone. An empty snapshot yields no results.
func (s *Searcher) Hybrid(ctx context.Context, snap *graph.Snapshot, query string, opts Options) ([]Result, error) {
	if snap.NodeCount() == 0 {
		return []Result{}, nil
	}
	limit := ClampLimit(opts.Limit)
	fetch := limit * candidateFactor

	lexical := Lexical(snap, query, opts, fetch)
	if s.store == nil || opts.LexicalOnly {
		return truncate(lexical, limit), nil
	}

	hits, err := s.store.Search(ctx, query, fetch, opts.filters())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("Dense search failed, using lexical ranking", "query", query, "error", err.Error())
		return truncate(lexical, limit), nil
	}

	dense := make([]Result, 0, len(hits))
	for _, h := range hits {
		if n, ok := snap.Node(h.NodeID); ok {
			dense = append(dense, resultOf(n, h.Score))
			continue
		}
		dense = append(dense, resultOfPayload(h.Payload, h.Score))
	}
	if len(lexical) == 0 && len(dense) == 0 {
		return []Result{}, nil
	}
	return truncate(RRF([][]Result{lexical, dense}, s.rrfK), limit), nil
}

// Semantic runs a dense-only search diversified with MMR. It needs a dense
// store; without one it fails with VECTOR_STORE_UNAVAILABLE.
func (s *Searcher) Semantic(ctx context.Context, query string, opts Options) ([]Result, error) {
	if s.store == nil {
		return nil, hammyerrors.New(hammyerrors.VectorStoreUnavailable, "semantic search needs a vector store", nil)
	}
	limit := ClampLimit(opts.Limit)

	hits, queryVec, err := s.store.SearchWithVectors(ctx, query, limit*candidateFactor, opts.filters())
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = Candidate{Result: resultOfPayload(h.Payload, h.Score), Vector: h.Vector}
	}
	return MMR(queryVec, candidates, limit, s.lambda), nil
}

func truncate(rs []Result, limit int) []Result {
	if len(rs) > limit {
		return rs[:limit]
	}
	return rs
}
