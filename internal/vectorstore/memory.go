package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"hammy/internal/graph"
)

// MemoryStore is a brute-force cosine Store kept in process. It backs tests
// and small repositories where running Weaviate is not worth it.
type MemoryStore struct {
	embedder  Embedder
	batchSize int

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload Payload
	vector  []float32
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		entries:   make(map[string]memoryEntry),
	}
}

// Len returns the number of stored vectors.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, nodes []*graph.Node) (int, error) {
	if len(nodes) == 0 {
		return 0, nil
	}
	texts := make([]string, len(nodes))
	for i, n := range nodes {
		texts[i] = EmbeddingText(n)
	}
	vectors, err := embedBatched(ctx, s.embedder, texts, s.batchSize)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range nodes {
		s.entries[n.ID] = memoryEntry{payload: PayloadOf(n), vector: vectors[i]}
	}
	return len(nodes), nil
}

// DeleteByFile implements Store.
func (s *MemoryStore) DeleteByFile(_ context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.payload.File == path {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Search implements Store.
func (s *MemoryStore) Search(ctx context.Context, query string, limit int, f Filters) ([]Hit, error) {
	hits, _, err := s.SearchWithVectors(ctx, query, limit, f)
	if err != nil {
		return nil, err
	}
	out := make([]Hit, len(hits))
	for i, h := range hits {
		out[i] = h.Hit
	}
	return out, nil
}

// SearchWithVectors implements Store.
func (s *MemoryStore) SearchWithVectors(ctx context.Context, query string, limit int, f Filters) ([]VectorHit, []float32, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, nil, err
	}
	queryVec := vecs[0]

	s.mu.RLock()
	hits := make([]VectorHit, 0, len(s.entries))
	for _, e := range s.entries {
		if !f.Matches(e.payload) {
			continue
		}
		hits = append(hits, VectorHit{
			Hit:    Hit{NodeID: e.payload.NodeID, Score: cosine(queryVec, e.vector), Payload: e.payload},
			Vector: e.vector,
		})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].NodeID < hits[j].NodeID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, queryVec, nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
