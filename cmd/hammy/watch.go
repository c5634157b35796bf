package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
	"hammy/internal/incremental"
	"hammy/internal/index"
	"hammy/internal/paths"
	"hammy/internal/slogutil"
	"hammy/internal/storage"
	"hammy/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

var (
	watchMetricsAddr string
	watchNoPersist   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the index up to date as files change",
	Long: `Watch the project for file changes and re-index only the files that
changed. Bridges are recomputed after every batch and the stored index is
rewritten so other commands see the update.

A full index is built first when none is stored.

Examples:
  hammy watch
  hammy watch --metrics-addr=:9464
  hammy watch --no-persist -vv`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	watchCmd.Flags().BoolVar(&watchNoPersist, "no-persist", false, "Keep updates in memory only")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	dataDir, err := paths.EnsureDataDir(env.root)
	if err != nil {
		return err
	}
	lock, err := index.AcquireLock(dataDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	factory := slogutil.NewLoggerFactory(env.root, env.cfg, env.cliLevel())
	defer factory.Close()
	logger := slogutil.NewTeeLogger(env.logger.Handler(), factory.WatchLogger().Handler())

	db, err := storage.Open(env.root, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ix, err := index.New(env.root, env.cfg, logger)
	if err != nil {
		return err
	}
	store := env.openVectorStore(ctx, true)
	if store != nil {
		ix.WithVectorStore(store)
	}

	g, err := loadOrBuild(ctx, db, ix, logger)
	if err != nil {
		return err
	}

	// The writer outlives ctx so the watcher's last flush still lands.
	writerCtx, stopWriter := context.WithCancel(context.Background())
	defer stopWriter()

	metrics := incremental.NewMetrics("hammy")
	opts := []incremental.Option{incremental.WithMetrics(metrics)}
	if store != nil {
		opts = append(opts, incremental.WithVectorStore(store))
	}
	if !watchNoPersist {
		opts = append(opts, incremental.WithOnApply(func(snap *graph.Snapshot, res incremental.ApplyResult) {
			if _, err := db.SaveSnapshot(writerCtx, snap); err != nil {
				logger.Error("Failed to persist snapshot", "version", res.Version, "error", err)
			}
		}))
	}

	maintainer := incremental.New(env.root, g, ix, logger, opts...)
	maintainer.Start(writerCtx)
	defer maintainer.Stop()

	debounce := time.Duration(env.cfg.Watch.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = watcher.DefaultDebounce
	}
	w, err := watcher.New(env.root, ix.Ignore(), debounce, logger, maintainer.HandleEvents)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() {
		w.Stop()
		flushCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := maintainer.Flush(flushCtx); err != nil {
			logger.Warn("Pending changes were not applied", "error", err)
		}
	}()

	if watchMetricsAddr != "" {
		srv := &http.Server{Addr: watchMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go serveMetrics(srv, logger)
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	snap := maintainer.Snapshot()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (%d symbols in %d files). Press Ctrl+C to stop.\n",
		env.root, snap.NodeCount(), len(snap.Files()))

	<-ctx.Done()
	logger.Info("Stopping watcher")
	return nil
}

// loadOrBuild returns the stored graph, running a full index when none exists.
func loadOrBuild(ctx context.Context, db *storage.DB, ix *index.Indexer, logger *slog.Logger) (*graph.Graph, error) {
	g, _, err := db.LoadGraph(ctx)
	if err == nil {
		return g, nil
	}
	if !hammyerrors.HasCode(err, hammyerrors.IndexNotFound) {
		return nil, err
	}

	logger.Info("No stored index, running a full index first")
	g, stats, err := ix.Run(ctx)
	if err != nil {
		return nil, err
	}
	snap := g.Snapshot()
	if _, err := db.SaveSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	meta := index.NewMeta(ix.Root(), stats, snap.NodeCount(), snap.EdgeCount(), languagesOf(snap))
	if err := meta.Save(paths.DataDir(ix.Root())); err != nil {
		logger.Warn("Failed to write index metadata", "error", err)
	}
	return g, nil
}

func serveMetrics(srv *http.Server, logger *slog.Logger) {
	logger.Info("Serving metrics", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", "error", err)
	}
}
