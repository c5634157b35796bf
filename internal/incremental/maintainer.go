package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"hammy/internal/bridge"
	"hammy/internal/extract"
	"hammy/internal/graph"
	"hammy/internal/index"
	"hammy/internal/paths"
	"hammy/internal/vectorstore"
	"hammy/internal/watcher"
)

// DefaultQueueSize bounds the number of batches waiting for the writer.
const DefaultQueueSize = 64

// ErrStopped is returned for work submitted to a stopped maintainer.
var ErrStopped = errors.New("maintainer stopped")

// FileExtractor turns one file into graph content. *index.Indexer
// satisfies it.
type FileExtractor interface {
	Accepts(rel string) bool
	ExtractFile(ctx context.Context, abs, rel string) (extract.Result, error)
}

// Option configures a Maintainer.
type Option func(*Maintainer)

// WithVectorStore mirrors every change into store. Failures are counted and
// logged but never fail a batch.
func WithVectorStore(store vectorstore.Store) Option {
	return func(m *Maintainer) { m.store = store }
}

// WithMetrics records batch outcomes.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Maintainer) { m.metrics = metrics }
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(m *Maintainer) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// WithOnApply registers a callback run on the writer goroutine after each
// batch is published.
func WithOnApply(fn func(*graph.Snapshot, ApplyResult)) Option {
	return func(m *Maintainer) { m.onApply = fn }
}

type batch struct {
	changes []ChangedFile
	reply   chan ApplyResult
	// barrier batches carry no changes; the writer only replies to them.
	barrier bool
}

// Maintainer owns the mutable graph. Only its writer goroutine touches the
// graph; everyone else reads the published snapshot.
type Maintainer struct {
	root    string
	ex      FileExtractor
	store   vectorstore.Store
	metrics *Metrics
	onApply func(*graph.Snapshot, ApplyResult)
	logger  *slog.Logger

	graph  *graph.Graph
	hashes map[string]string
	snap   atomic.Pointer[graph.Snapshot]

	queueSize int
	queue     chan batch
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	wg        sync.WaitGroup
}

// New creates a maintainer over g, which it takes ownership of. g may be
// nil for an empty project.
func New(root string, g *graph.Graph, ex FileExtractor, logger *slog.Logger, opts ...Option) *Maintainer {
	if g == nil {
		g = graph.New()
	}
	m := &Maintainer{
		root:      root,
		ex:        ex,
		logger:    logger,
		graph:     g,
		hashes:    make(map[string]string),
		queueSize: DefaultQueueSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = make(chan batch, m.queueSize)
	m.snap.Store(g.Snapshot())
	return m
}

// Snapshot returns the latest published snapshot. It is safe for
// concurrent use and never blocks on the writer.
func (m *Maintainer) Snapshot() *graph.Snapshot {
	return m.snap.Load()
}

// Start launches the writer goroutine. It runs until ctx is done or Stop
// is called; after that every send fails with ErrStopped.
func (m *Maintainer) Start(ctx context.Context) {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	m.wg.Add(1)
	go m.run(ctx)
}

// Stop ends the writer after the batch in progress. Queued batches are
// dropped.
func (m *Maintainer) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}

// Enqueue queues changes without waiting for them to be applied.
func (m *Maintainer) Enqueue(changes []ChangedFile) error {
	return m.send(context.Background(), batch{changes: changes})
}

// HandleEvents is a watcher.ChangeHandler feeding the queue.
func (m *Maintainer) HandleEvents(events []watcher.Event) {
	if err := m.Enqueue(FromEvents(events)); err != nil {
		m.logger.Warn("Dropped change batch", "events", len(events), "error", err)
	}
}

// Submit queues changes and waits until they are applied and published.
func (m *Maintainer) Submit(ctx context.Context, changes []ChangedFile) (ApplyResult, error) {
	reply := make(chan ApplyResult, 1)
	if err := m.send(ctx, batch{changes: changes, reply: reply}); err != nil {
		return ApplyResult{}, err
	}
	select {
	case res := <-reply:
		return res, nil
	case <-m.done:
		return ApplyResult{}, ErrStopped
	case <-ctx.Done():
		return ApplyResult{}, ctx.Err()
	}
}

// Flush waits until every batch queued before the call has been applied.
func (m *Maintainer) Flush(ctx context.Context) error {
	reply := make(chan ApplyResult, 1)
	if err := m.send(ctx, batch{reply: reply, barrier: true}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Maintainer) send(ctx context.Context, b batch) error {
	select {
	case <-m.stop:
		return ErrStopped
	case <-m.done:
		return ErrStopped
	default:
	}
	select {
	case m.queue <- b:
		if m.metrics != nil {
			m.metrics.QueueDepth.Set(float64(len(m.queue)))
		}
		return nil
	case <-m.stop:
		return ErrStopped
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Maintainer) run(ctx context.Context) {
	defer m.wg.Done()
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case b := <-m.queue:
			if m.metrics != nil {
				m.metrics.QueueDepth.Set(float64(len(m.queue)))
			}
			if b.barrier {
				b.reply <- ApplyResult{}
				continue
			}
			res := m.apply(ctx, b.changes)
			if b.reply != nil {
				b.reply <- res
			}
		}
	}
}

// apply runs on the writer goroutine only.
func (m *Maintainer) apply(ctx context.Context, changes []ChangedFile) ApplyResult {
	start := time.Now()
	res := ApplyResult{Reindexed: []string{}, Removed: []string{}, Errors: []index.FileError{}}

	var upserts []*graph.Node
	for _, rel := range dedupe(changes) {
		abs := paths.JoinRepoPath(m.root, rel)
		src, err := os.ReadFile(abs)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				m.remove(ctx, rel, &res)
			} else {
				res.Errors = append(res.Errors, index.FileError{Path: rel, Message: err.Error()})
			}
			continue
		}

		if !m.ex.Accepts(rel) {
			if m.graph.HasFile(rel) {
				m.remove(ctx, rel, &res)
			} else {
				res.Ignored++
			}
			continue
		}

		hash := contentHash(src)
		if m.hashes[rel] == hash && m.graph.HasFile(rel) {
			res.Unchanged++
			continue
		}

		out, err := m.ex.ExtractFile(ctx, abs, rel)
		if err != nil {
			m.logger.Warn("Failed to re-extract file", "path", rel, "error", err)
			res.Errors = append(res.Errors, index.FileError{Path: rel, Message: err.Error()})
			m.remove(ctx, rel, &res)
			continue
		}

		res.NodesRemoved += len(m.graph.RemoveFile(rel))
		m.deleteVectors(ctx, rel, &res)
		m.graph.AddFile(rel, out.Nodes, out.Edges)
		m.hashes[rel] = hash
		res.Reindexed = append(res.Reindexed, rel)
		res.NodesAdded += len(out.Nodes)
		res.EdgesAdded += len(out.Edges)
		upserts = append(upserts, out.Nodes...)
	}

	bridges := bridge.ResolveSnapshot(m.graph.Snapshot())
	m.graph.SetBridges(bridges)
	res.BridgeEdges = len(bridges)

	snap := m.graph.Snapshot()
	m.snap.Store(snap)
	res.Version = snap.Version()

	if m.store != nil && len(upserts) > 0 {
		if _, err := m.store.Upsert(ctx, upserts); err != nil {
			res.VectorErrors++
			m.logger.Warn("Vector upsert failed", "nodes", len(upserts), "error", err)
		}
	}

	res.Duration = time.Since(start)
	if m.metrics != nil {
		m.metrics.observe(res, snap.NodeCount(), snap.EdgeCount())
	}
	m.logger.Info("Applied change batch",
		"version", res.Version,
		"reindexed", len(res.Reindexed),
		"removed", len(res.Removed),
		"unchanged", res.Unchanged,
		"errors", len(res.Errors),
		"duration", res.Duration,
	)
	if m.onApply != nil {
		m.onApply(snap, res)
	}
	return res
}

func (m *Maintainer) remove(ctx context.Context, rel string, res *ApplyResult) {
	if !m.graph.HasFile(rel) {
		delete(m.hashes, rel)
		return
	}
	res.NodesRemoved += len(m.graph.RemoveFile(rel))
	delete(m.hashes, rel)
	res.Removed = append(res.Removed, rel)
	m.deleteVectors(ctx, rel, res)
}

func (m *Maintainer) deleteVectors(ctx context.Context, rel string, res *ApplyResult) {
	if m.store == nil {
		return
	}
	if _, err := m.store.DeleteByFile(ctx, rel); err != nil {
		res.VectorErrors++
		m.logger.Warn("Vector delete failed", "path", rel, "error", err)
	}
}

// dedupe returns the distinct paths of a batch in sorted order.
func dedupe(changes []ChangedFile) []string {
	seen := make(map[string]bool, len(changes))
	out := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.Path == "" || seen[c.Path] {
			continue
		}
		seen[c.Path] = true
		out = append(out, c.Path)
	}
	sort.Strings(out)
	return out
}

func contentHash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}
