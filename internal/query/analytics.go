package query

import (
	"sort"
	"strings"

	"hammy/internal/diff"
	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
	"hammy/internal/impact"
)

// UsagesResponse lists the call sites of a name.
type UsagesResponse struct {
	Symbol     string         `json:"symbol"`
	FileFilter string         `json:"file_filter,omitempty"`
	Usages     []impact.Usage `json:"usages"`
}

// Usages finds the call sites whose context mentions name as a whole word.
func (e *Engine) Usages(name, fileFilter string) (*UsagesResponse, error) {
	if strings.TrimSpace(name) == "" {
		return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "symbol name must not be empty")
	}
	_, a := e.analysis()
	return &UsagesResponse{
		Symbol:     name,
		FileFilter: fileFilter,
		Usages:     a.FindUsages(name, fileFilter),
	}, nil
}

// Impact walks the call graph around name. depth is clamped to [1, 6].
func (e *Engine) Impact(name string, depth int, dir impact.Direction) (*impact.Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "symbol name must not be empty")
	}
	_, a := e.analysis()
	return a.Analyze(name, depth, dir), nil
}

// Diff maps a unified diff to changed symbols and their callers. depth <= 0
// uses the default of two hops.
func (e *Engine) Diff(text string, depth int) *diff.Report {
	_, a := e.analysis()
	return diff.Analyze(text, a, depth)
}

// Bridge is one resolved cross-language link with both endpoints.
type Bridge struct {
	Consumer   *graph.Node `json:"consumer"`
	Provider   *graph.Node `json:"provider"`
	Confidence float64     `json:"confidence"`
	Context    string      `json:"context"`
}

// BridgesResponse lists the snapshot's resolved bridges.
type BridgesResponse struct {
	Bridges []Bridge `json:"bridges"`
}

// Bridges returns the consumer to provider bridge edges of the snapshot,
// highest confidence first.
func (e *Engine) Bridges() *BridgesResponse {
	snap := e.Snapshot()
	resp := &BridgesResponse{Bridges: []Bridge{}}
	for _, b := range snap.Bridges() {
		if !snap.IsResolvedBridge(b) {
			continue
		}
		consumer, ok1 := snap.Node(b.Source)
		provider, ok2 := snap.Node(b.Target)
		if !ok1 || !ok2 {
			continue
		}
		resp.Bridges = append(resp.Bridges, Bridge{
			Consumer:   consumer,
			Provider:   provider,
			Confidence: b.Metadata.Confidence,
			Context:    b.Metadata.Context,
		})
	}
	sort.SliceStable(resp.Bridges, func(i, j int) bool {
		return resp.Bridges[i].Confidence > resp.Bridges[j].Confidence
	})
	return resp
}
