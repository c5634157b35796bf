package vectorstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
)

// BreakerConfig tunes the circuit breaker around a Store.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used by the CLI.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "vectorstore",
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

// BreakerStore wraps a Store so that a backend failing repeatedly is
// skipped for a cool-down period instead of being called on every query.
// Calls rejected by an open breaker fail with VECTOR_STORE_UNAVAILABLE.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner Store, cfg BreakerConfig, logger *slog.Logger) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about backend health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerStore{inner: inner, cb: cb}
}

// State reports the breaker state.
func (b *BreakerStore) State() gobreaker.State { return b.cb.State() }

// Upsert implements Store.
func (b *BreakerStore) Upsert(ctx context.Context, nodes []*graph.Node) (int, error) {
	n, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Upsert(ctx, nodes)
	})
	if err != nil {
		return 0, b.wrap("upsert", err)
	}
	return n.(int), nil
}

// DeleteByFile implements Store.
func (b *BreakerStore) DeleteByFile(ctx context.Context, path string) (int, error) {
	n, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.DeleteByFile(ctx, path)
	})
	if err != nil {
		return 0, b.wrap("delete", err)
	}
	return n.(int), nil
}

// Search implements Store.
func (b *BreakerStore) Search(ctx context.Context, query string, limit int, f Filters) ([]Hit, error) {
	hits, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Search(ctx, query, limit, f)
	})
	if err != nil {
		return nil, b.wrap("search", err)
	}
	return hits.([]Hit), nil
}

type vectorResult struct {
	hits  []VectorHit
	query []float32
}

// SearchWithVectors implements Store.
func (b *BreakerStore) SearchWithVectors(ctx context.Context, query string, limit int, f Filters) ([]VectorHit, []float32, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		hits, q, err := b.inner.SearchWithVectors(ctx, query, limit, f)
		if err != nil {
			return nil, err
		}
		return vectorResult{hits: hits, query: q}, nil
	})
	if err != nil {
		return nil, nil, b.wrap("search", err)
	}
	vr := res.(vectorResult)
	return vr.hits, vr.query, nil
}

func (b *BreakerStore) wrap(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return hammyerrors.New(hammyerrors.VectorStoreUnavailable, "vector store "+op+" skipped: circuit open", err)
	}
	return hammyerrors.New(hammyerrors.VectorStoreUnavailable, "vector store "+op+" failed", err)
}
