package query

import (
	"context"
	"strings"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/search"
)

// SearchMode picks the ranking strategy.
type SearchMode string

const (
	// SearchHybrid fuses BM25 with dense results when a store exists.
	SearchHybrid SearchMode = "hybrid"
	// SearchSemantic ranks dense results diversified with MMR.
	SearchSemantic SearchMode = "semantic"
)

// SearchResponse holds ranked search results.
type SearchResponse struct {
	Query   string          `json:"query"`
	Mode    SearchMode      `json:"mode"`
	Dense   bool            `json:"dense"`
	Results []search.Result `json:"results"`
}

// Search ranks the snapshot's nodes against q.
func (e *Engine) Search(ctx context.Context, q string, mode SearchMode, opts search.Options) (*SearchResponse, error) {
	if strings.TrimSpace(q) == "" {
		return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "search query must not be empty")
	}
	resp := &SearchResponse{Query: q, Mode: mode, Dense: e.searcher.HasDense() && !opts.LexicalOnly}

	var (
		results []search.Result
		err     error
	)
	switch mode {
	case SearchSemantic:
		results, err = e.searcher.Semantic(ctx, q, opts)
	case SearchHybrid, "":
		resp.Mode = SearchHybrid
		results, err = e.searcher.Hybrid(ctx, e.Snapshot(), q, opts)
	default:
		return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "unknown search mode %q (want hybrid or semantic)", mode)
	}
	if err != nil {
		return nil, err
	}
	resp.Results = results
	return resp, nil
}
