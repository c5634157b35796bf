// Package index builds the graph for a whole project: it walks the tree,
// parses files in parallel, merges the results in path order and layers
// the cross-language bridge edges on top. It also owns the on-disk writer
// lock and the index metadata file.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"hammy/internal/bridge"
	"hammy/internal/config"
	hammyerrors "hammy/internal/errors"
	"hammy/internal/extract"
	"hammy/internal/grammar"
	"hammy/internal/graph"
	"hammy/internal/ignore"
	"hammy/internal/vectorstore"
)

// FileError records a file that could not be indexed.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Stats summarizes one indexing run.
type Stats struct {
	FilesProcessed int         `json:"files_processed"`
	FilesSkipped   int         `json:"files_skipped"`
	NodesExtracted int         `json:"nodes_extracted"`
	EdgesExtracted int         `json:"edges_extracted"`
	BridgeEdges    int         `json:"bridge_edges"`
	NodesIndexed   int         `json:"nodes_indexed"`
	Errors         []FileError `json:"errors"`
	DurationMs     int64       `json:"duration_ms"`
}

// Indexer parses a project into a graph.
type Indexer struct {
	root     string
	cfg      *config.Config
	parser   *grammar.Parser
	registry *extract.Registry
	ignore   *ignore.Manager
	store    vectorstore.Store
	logger   *slog.Logger
}

// New creates an indexer for root. Languages come from cfg.Parsing.Languages.
func New(root string, cfg *config.Config, logger *slog.Logger) (*Indexer, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	langs, err := Languages(cfg.Parsing.Languages)
	if err != nil {
		return nil, err
	}
	registry, err := extract.NewRegistry(langs...)
	if err != nil {
		return nil, err
	}
	ign, err := ignore.New(root, cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("loading ignore rules: %w", err)
	}
	return &Indexer{
		root:     ign.Root(),
		cfg:      cfg,
		parser:   grammar.NewParser(),
		registry: registry,
		ignore:   ign,
		logger:   logger,
	}, nil
}

// Languages parses configured language names.
func Languages(names []string) ([]grammar.Language, error) {
	out := make([]grammar.Language, 0, len(names))
	for _, name := range names {
		l, ok := grammar.ParseLanguage(name)
		if !ok {
			return nil, hammyerrors.Newf(hammyerrors.UnsupportedLanguage, "unsupported language %q", name)
		}
		out = append(out, l)
	}
	return out, nil
}

// WithVectorStore makes Run upsert every node into store after the graph
// is built. Store failures never fail the run.
func (ix *Indexer) WithVectorStore(store vectorstore.Store) *Indexer {
	ix.store = store
	return ix
}

// Root returns the absolute project root.
func (ix *Indexer) Root() string { return ix.root }

// Ignore returns the ignore rules in effect.
func (ix *Indexer) Ignore() *ignore.Manager { return ix.ignore }

// Registry returns the extractor registry.
func (ix *Indexer) Registry() *extract.Registry { return ix.registry }

// Accepts reports whether rel is a file this indexer would parse.
func (ix *Indexer) Accepts(rel string) bool {
	lang, ok := grammar.ForPath(rel)
	return ok && ix.registry.Supports(lang) && !ix.ignore.IsIgnored(rel, false)
}

// ExtractFile reads and extracts one file. rel is the project-relative
// path recorded on the nodes.
func (ix *Indexer) ExtractFile(ctx context.Context, abs, rel string) (extract.Result, error) {
	src, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return extract.Result{}, hammyerrors.New(hammyerrors.FileNotFound, rel, err)
		}
		return extract.Result{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	if limit := ix.maxFileBytes(); limit > 0 && int64(len(src)) > limit {
		return extract.Result{}, hammyerrors.Newf(hammyerrors.InvalidArgument, "%s exceeds %d KB", rel, ix.cfg.Parsing.MaxFileSizeKB)
	}
	tree, err := ix.parser.ParseFile(ctx, rel, src)
	if err != nil {
		return extract.Result{}, err
	}
	return ix.registry.Extract(tree, rel)
}

func (ix *Indexer) maxFileBytes() int64 {
	return int64(ix.cfg.Parsing.MaxFileSizeKB) * 1024
}

func (ix *Indexer) workers(files int) int {
	n := ix.cfg.Parsing.Workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if n > files {
		n = files
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run indexes the whole project. Per-file failures are recorded in
// Stats.Errors; only cancellation or a failed walk fails the run.
func (ix *Indexer) Run(ctx context.Context) (*graph.Graph, Stats, error) {
	start := time.Now()
	stats := Stats{Errors: []FileError{}}

	walk, err := Walk(ix.root, ix.ignore, WalkOptions{
		Languages:    ix.registry.Languages(),
		MaxFileBytes: ix.maxFileBytes(),
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walking %s: %w", ix.root, err)
	}
	stats.FilesSkipped = walk.Skipped
	ix.logger.Info("Indexing project", "root", ix.root, "files", len(walk.Files))

	type fileResult struct {
		res extract.Result
		err error
	}
	results := make([]fileResult, len(walk.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers(len(walk.Files)))
	for i, f := range walk.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := ix.ExtractFile(gctx, f.Abs, f.Rel)
			results[i] = fileResult{res: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	gr := graph.New()
	for i, f := range walk.Files {
		r := results[i]
		if r.err != nil {
			ix.logger.Warn("Failed to index file", "path", f.Rel, "error", r.err)
			stats.Errors = append(stats.Errors, FileError{Path: f.Rel, Message: r.err.Error()})
			continue
		}
		gr.AddFile(f.Rel, r.res.Nodes, r.res.Edges)
		stats.FilesProcessed++
		stats.NodesExtracted += len(r.res.Nodes)
		stats.EdgesExtracted += len(r.res.Edges)
	}

	bridges := bridge.ResolveSnapshot(gr.Snapshot())
	gr.SetBridges(bridges)
	stats.BridgeEdges = len(bridges)

	if ix.store != nil {
		n, err := ix.store.Upsert(ctx, gr.Snapshot().Nodes())
		if err != nil {
			ix.logger.Warn("Vector upsert failed", "error", err)
		}
		stats.NodesIndexed = n
	}

	elapsed := time.Since(start)
	stats.DurationMs = elapsed.Milliseconds()
	ix.logger.Info("Indexed project",
		"files", stats.FilesProcessed,
		"skipped", stats.FilesSkipped,
		"nodes", stats.NodesExtracted,
		"edges", stats.EdgesExtracted,
		"bridges", stats.BridgeEdges,
		"errors", len(stats.Errors),
		"duration", elapsed,
	)
	return gr, stats, nil
}
