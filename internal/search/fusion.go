package search

import (
	"sort"

	"hammy/internal/graph"
	"hammy/internal/vectorstore"
)

// DefaultRRFK dampens rank differences in Reciprocal Rank Fusion.
const DefaultRRFK = 60

// Result is one ranked search hit.
type Result struct {
	NodeID   string  `json:"node_id"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	File     string  `json:"file"`
	Lines    [2]int  `json:"lines"`
	Language string  `json:"language"`
	Summary  string  `json:"summary,omitempty"`
	Score    float64 `json:"score"`
}

func resultOf(n *graph.Node, score float64) Result {
	return Result{
		NodeID:   n.ID,
		Type:     string(n.Type),
		Name:     n.Name,
		File:     n.Loc.File,
		Lines:    n.Loc.Lines,
		Language: n.Language,
		Summary:  n.Summary,
		Score:    score,
	}
}

func resultOfPayload(p vectorstore.Payload, score float64) Result {
	return Result{
		NodeID:   p.NodeID,
		Type:     p.Type,
		Name:     p.Name,
		File:     p.File,
		Lines:    p.Lines,
		Language: p.Language,
		Summary:  p.Summary,
		Score:    score,
	}
}

// RRF fuses ranked lists: each item scores the sum over the lists holding
// it of 1/(k+rank+1), rank being 0-based. Items in several lists therefore
// never score below their best single-list term. The fused list is sorted
// by score descending, ties keeping first-seen order. k <= 0 uses
// DefaultRRFK.
func RRF(lists [][]Result, k int) []Result {
	if k <= 0 {
		k = DefaultRRFK
	}

	scores := make(map[string]float64)
	payloads := make(map[string]Result)
	var order []string
	for _, list := range lists {
		for rank, r := range list {
			if _, seen := scores[r.NodeID]; !seen {
				order = append(order, r.NodeID)
			}
			scores[r.NodeID] += 1.0 / float64(k+rank+1)
			if _, ok := payloads[r.NodeID]; !ok {
				payloads[r.NodeID] = r
			}
		}
	}

	fused := make([]Result, len(order))
	for i, id := range order {
		r := payloads[id]
		r.Score = scores[id]
		fused[i] = r
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}
