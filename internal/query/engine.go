// Package query answers questions about the current graph snapshot. The
// Engine ties analytics, search, history and per-file extraction together
// behind one set of typed operations used by the CLI.
package query

import (
	"context"
	"log/slog"
	"sync"

	"hammy/internal/config"
	"hammy/internal/extract"
	"hammy/internal/graph"
	"hammy/internal/hotspots"
	"hammy/internal/impact"
	"hammy/internal/index"
	"hammy/internal/resolve"
	"hammy/internal/search"
	"hammy/internal/vcs"
	"hammy/internal/vectorstore"
)

// patternCacheSize bounds the compiled word-boundary patterns kept across
// queries.
const patternCacheSize = 256

// SnapshotSource hands out the current snapshot. *incremental.Maintainer
// satisfies it.
type SnapshotSource interface {
	Snapshot() *graph.Snapshot
}

// StaticSource serves one fixed snapshot, typically loaded from storage.
type StaticSource struct {
	snap *graph.Snapshot
}

// Static wraps s. A nil s serves the empty snapshot.
func Static(s *graph.Snapshot) StaticSource {
	if s == nil {
		s = graph.Empty()
	}
	return StaticSource{snap: s}
}

// Snapshot returns the wrapped snapshot.
func (s StaticSource) Snapshot() *graph.Snapshot { return s.snap }

// Extractor parses one file on demand. *index.Indexer satisfies it.
type Extractor interface {
	ExtractFile(ctx context.Context, abs, rel string) (extract.Result, error)
}

// HotspotHistory returns past hotspot scores, oldest first.
// *storage.DB satisfies it.
type HotspotHistory interface {
	HotspotSamples(ctx context.Context, ids []string) (map[string][]hotspots.Sample, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithVectorStore enables dense and semantic search.
func WithVectorStore(store vectorstore.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithVCS enables history lookups and churn-weighted hotspots.
func WithVCS(p vcs.Provider) Option {
	return func(e *Engine) { e.vcs = p }
}

// WithExtractor makes AST queries parse files live instead of reading the
// snapshot.
func WithExtractor(ex Extractor) Option {
	return func(e *Engine) { e.extractor = ex }
}

// WithHotspotHistory enables hotspot trends.
func WithHotspotHistory(h HotspotHistory) Option {
	return func(e *Engine) { e.history = h }
}

// WithIndexMeta attaches the metadata of the last full index for Status.
func WithIndexMeta(meta *index.IndexMeta) Option {
	return func(e *Engine) { e.meta = meta }
}

// Engine is the query coordinator. It is safe for concurrent use; every
// operation reads one whole snapshot.
type Engine struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	source SnapshotSource

	store     vectorstore.Store
	vcs       vcs.Provider
	extractor Extractor
	history   HotspotHistory
	meta      *index.IndexMeta

	searcher *search.Searcher
	words    *resolve.WordMatcher

	mu       sync.Mutex
	analyzed *graph.Snapshot
	analyzer *impact.Analyzer
}

// NewEngine creates an engine over source. cfg may be nil for defaults.
func NewEngine(root string, source SnapshotSource, cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	e := &Engine{
		root:   root,
		cfg:    cfg,
		logger: logger,
		source: source,
		words:  resolve.NewWordMatcher(patternCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.searcher = search.NewSearcher(e.store, cfg.Search, logger)
	return e
}

// Snapshot returns the snapshot the next operation would read.
func (e *Engine) Snapshot() *graph.Snapshot {
	if s := e.source.Snapshot(); s != nil {
		return s
	}
	return graph.Empty()
}

// analysis returns the current snapshot with an analyzer built for it. The
// analyzer is rebuilt only when the source publishes a new snapshot.
func (e *Engine) analysis() (*graph.Snapshot, *impact.Analyzer) {
	snap := e.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.analyzed != snap {
		e.analyzer = impact.NewAnalyzer(snap, resolve.ForSnapshot(snap), e.words)
		e.analyzed = snap
		e.logger.Debug("Built analyzer", "snapshot", snap.Version(), "nodes", snap.NodeCount())
	}
	return snap, e.analyzer
}
