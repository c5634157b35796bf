package main

import (
	"context"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"hammy/internal/graph"
	"hammy/internal/hotspots"
	"hammy/internal/index"
	"hammy/internal/paths"
	"hammy/internal/project"
	"hammy/internal/resolve"
	"hammy/internal/slogutil"
	"hammy/internal/storage"
	"hammy/internal/vcs"
)

var (
	indexWithHistory bool
	indexNoVectors   bool
)

// hotspotRetention bounds how far back hotspot samples are kept.
const hotspotRetention = 180 * 24 * time.Hour

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the code graph for the project",
	Long: `Walk the project, parse every supported file, resolve cross-language
bridges and store the resulting graph under .hammy/index.db.

When vector search is enabled the symbols are also embedded and upserted
into the configured Weaviate instance.

Examples:
  hammy index
  hammy index --history       # attach churn, owners and recent commit subjects
  hammy index --no-vectors    # skip embedding even when enabled
  hammy index --format=json`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexWithHistory, "history", false, "Attach VCS history to every symbol")
	indexCmd.Flags().BoolVar(&indexNoVectors, "no-vectors", false, "Skip the dense vector store")
	rootCmd.AddCommand(indexCmd)
}

// IndexResponseCLI reports a completed full index.
type IndexResponseCLI struct {
	Root     string           `json:"root"`
	Stats    index.Stats      `json:"stats"`
	Snapshot storage.Header   `json:"snapshot"`
	Meta     *index.IndexMeta `json:"meta"`
}

func runIndex(cmd *cobra.Command, args []string) error {
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
	logger := slogutil.NewTeeLogger(env.logger.Handler(), factory.IndexLogger().Handler())

	ix, err := index.New(env.root, env.cfg, logger)
	if err != nil {
		return err
	}
	if !indexNoVectors {
		if store := env.openVectorStore(ctx, true); store != nil {
			ix.WithVectorStore(store)
		}
	}

	g, stats, err := ix.Run(ctx)
	if err != nil {
		return err
	}
	snap := g.Snapshot()

	provider := env.openVCS()
	var churn map[string]int
	if provider != nil {
		churn, err = provider.Churn(ctx, env.cfg.VCS.ChurnWindowDays)
		if err != nil {
			logger.Warn("Failed to compute churn", "error", err)
			churn = nil
		}
		if indexWithHistory {
			attachHistory(ctx, snap, provider, churn, env)
		}
	}

	db, err := storage.Open(env.root, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	header, err := db.SaveSnapshot(ctx, snap)
	if err != nil {
		return err
	}

	rows := hotspots.Compute(snap, resolve.ForSnapshot(snap), hotspots.Options{
		TopN:      hotspots.MaxTopN,
		FileChurn: churn,
	})
	if err := db.RecordHotspots(ctx, hotspots.SamplesOf(rows, header.SavedAt), hotspotRetention); err != nil {
		logger.Warn("Failed to record hotspot samples", "error", err)
	}

	meta := index.NewMeta(env.root, stats, snap.NodeCount(), snap.EdgeCount(), languagesOf(snap))
	if err := meta.Save(dataDir); err != nil {
		logger.Warn("Failed to write index metadata", "error", err)
	}

	info := project.Detect(env.root)
	if err := project.SaveInfo(env.root, &info); err != nil {
		logger.Warn("Failed to write project info", "error", err)
	}

	return env.render(&IndexResponseCLI{
		Root:     env.root,
		Stats:    stats,
		Snapshot: header,
		Meta:     meta,
	})
}

// attachHistory sets node history before the snapshot is saved. The
// snapshot is not shared yet, so mutating its nodes is safe here.
func attachHistory(ctx context.Context, snap *graph.Snapshot, p vcs.Provider, churn map[string]int, env *cliEnv) {
	for _, file := range snap.Files() {
		if ctx.Err() != nil {
			return
		}
		nodes := snap.NodesInFile(file)
		if len(nodes) == 0 {
			continue
		}
		h, err := vcs.FileHistory(ctx, p, file, churn)
		if err != nil {
			env.logger.Debug("No history for file", "file", file, "error", err)
			continue
		}
		for _, n := range nodes {
			n.History = h
		}
	}
}

func languagesOf(snap *graph.Snapshot) []string {
	byLang := snap.Stats().ByLanguage
	langs := make([]string, 0, len(byLang))
	for l := range byLang {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
