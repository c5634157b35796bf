// Package vectorstore holds the dense-vector side of hybrid search: the
// Store contract, an embedder, a Weaviate-backed store, an in-memory store
// and a circuit breaker that turns a failing backend into a coded
// VECTOR_STORE_UNAVAILABLE error.
package vectorstore

import (
	"context"
	"strings"

	"hammy/internal/graph"
)

// DefaultBatchSize bounds how many nodes are embedded and written per request.
const DefaultBatchSize = 500

// Filters narrows a dense search. Empty fields match everything.
type Filters struct {
	Language string
	NodeType string
	File     string
}

// Matches reports whether a payload passes the filters.
func (f Filters) Matches(p Payload) bool {
	if f.Language != "" && !strings.EqualFold(p.Language, f.Language) {
		return false
	}
	if f.NodeType != "" && !strings.EqualFold(p.Type, f.NodeType) {
		return false
	}
	if f.File != "" && p.File != f.File {
		return false
	}
	return true
}

// Payload is the node summary stored next to each vector.
type Payload struct {
	NodeID     string `json:"node_id"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	File       string `json:"file"`
	Lines      [2]int `json:"lines"`
	Language   string `json:"language"`
	Summary    string `json:"summary,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	IsAsync    bool   `json:"is_async"`
}

// PayloadOf builds the stored payload for a node.
func PayloadOf(n *graph.Node) Payload {
	return Payload{
		NodeID:     n.ID,
		Type:       string(n.Type),
		Name:       n.Name,
		File:       n.Loc.File,
		Lines:      n.Loc.Lines,
		Language:   n.Language,
		Summary:    n.Summary,
		Visibility: n.Meta.Visibility,
		IsAsync:    n.Meta.IsAsync,
	}
}

// Hit is one dense search result.
type Hit struct {
	NodeID  string  `json:"node_id"`
	Score   float64 `json:"score"`
	Payload Payload `json:"payload"`
}

// VectorHit is a Hit carrying the stored vector, used for MMR.
type VectorHit struct {
	Hit
	Vector []float32 `json:"-"`
}

// Store is a dense vector index over graph nodes.
type Store interface {
	// Upsert embeds and writes nodes, returning how many were stored.
	Upsert(ctx context.Context, nodes []*graph.Node) (int, error)
	// DeleteByFile removes every vector whose payload file equals path.
	DeleteByFile(ctx context.Context, path string) (int, error)
	// Search returns the nearest nodes to query, best first.
	Search(ctx context.Context, query string, limit int, f Filters) ([]Hit, error)
	// SearchWithVectors is Search plus the stored vectors and the query vector.
	SearchWithVectors(ctx context.Context, query string, limit int, f Filters) ([]VectorHit, []float32, error)
}

// Embedder turns texts into vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingText is the text embedded for a node:
// "<type> <name> - <summary> params: a, b returns: R", omitting empty parts.
func EmbeddingText(n *graph.Node) string {
	var b strings.Builder
	b.WriteString(string(n.Type))
	b.WriteByte(' ')
	b.WriteString(n.Name)
	if n.Summary != "" {
		b.WriteString(" - ")
		b.WriteString(n.Summary)
	}
	if len(n.Meta.Parameters) > 0 {
		b.WriteString(" params: ")
		b.WriteString(strings.Join(n.Meta.Parameters, ", "))
	}
	if n.Meta.ReturnType != "" {
		b.WriteString(" returns: ")
		b.WriteString(n.Meta.ReturnType)
	}
	return b.String()
}

// embedBatched embeds texts in chunks of batchSize.
func embedBatched(ctx context.Context, e Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(i+batchSize, len(texts))
		vecs, err := e.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}
