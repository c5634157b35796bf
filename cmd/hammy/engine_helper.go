package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"hammy/internal/config"
	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
	"hammy/internal/index"
	"hammy/internal/output"
	"hammy/internal/paths"
	"hammy/internal/query"
	"hammy/internal/slogutil"
	"hammy/internal/storage"
	"hammy/internal/vcs"
	"hammy/internal/vectorstore"
)

// cliEnv carries what every command resolves before doing work.
type cliEnv struct {
	root   string
	cfg    *config.Config
	format output.Format
	level  slog.Level
	logger *slog.Logger
	out    io.Writer
}

func newEnv(cmd *cobra.Command) (*cliEnv, error) {
	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return nil, err
	}

	root, err := getRepoRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, hammyerrors.New(hammyerrors.ConfigInvalid, "loading configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, hammyerrors.New(hammyerrors.ConfigInvalid, "validating configuration", err)
	}

	level := slogutil.LevelFromVerbosity(verboseFlag, quietFlag)
	return &cliEnv{
		root:   cfg.Project.Root,
		cfg:    cfg,
		format: format,
		level:  level,
		logger: slogutil.NewLogger(cmd.ErrOrStderr(), level),
		out:    cmd.OutOrStdout(),
	}, nil
}

// getRepoRoot returns --root, or the working directory, as an absolute path.
func getRepoRoot() (string, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", hammyerrors.Newf(hammyerrors.InvalidArgument, "project root %s is not a directory", abs)
	}
	return abs, nil
}

// cliLevel is the level to force on file loggers, or nil to use the config.
func (env *cliEnv) cliLevel() *slog.Level {
	if verboseFlag == 0 && !quietFlag {
		return nil
	}
	level := env.level
	return &level
}

// engineSetup controls what openEngine wires besides the stored snapshot.
type engineSetup struct {
	// allowMissingIndex starts from an empty graph instead of failing.
	allowMissingIndex bool
	// liveParsing attaches an extractor so AST requests re-parse the file.
	liveParsing bool
}

// openEngine loads the stored graph and wires the optional services.
// The returned closer releases the database.
func (env *cliEnv) openEngine(ctx context.Context, setup engineSetup) (*query.Engine, func(), error) {
	db, err := storage.Open(env.root, env.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closer := func() {
		if cerr := db.Close(); cerr != nil {
			env.logger.Warn("Failed to close database", "error", cerr)
		}
	}

	snap := graph.Empty()
	g, header, err := db.LoadGraph(ctx)
	switch {
	case err == nil:
		snap = g.Snapshot()
		env.logger.Debug("Loaded index", "nodes", header.NodeCount, "edges", header.EdgeCount, "saved_at", header.SavedAt)
	case setup.allowMissingIndex && hammyerrors.HasCode(err, hammyerrors.IndexNotFound):
		env.logger.Debug("No stored index, starting empty")
	default:
		closer()
		return nil, nil, err
	}

	opts := []query.Option{query.WithHotspotHistory(db)}

	meta, err := index.LoadMeta(paths.DataDir(env.root))
	if err != nil {
		env.logger.Warn("Failed to read index metadata", "error", err)
	}
	if meta != nil {
		opts = append(opts, query.WithIndexMeta(meta))
		if fr := meta.CheckFreshness(env.root, snap.Files()); !fr.Fresh {
			env.logger.Warn("Index is stale, run 'hammy index' to refresh", "reason", fr.Reason)
		}
	}

	if p := env.openVCS(); p != nil {
		opts = append(opts, query.WithVCS(p))
	}
	if store := env.openVectorStore(ctx, false); store != nil {
		opts = append(opts, query.WithVectorStore(store))
	}
	if setup.liveParsing {
		ix, err := index.New(env.root, env.cfg, env.logger)
		if err != nil {
			closer()
			return nil, nil, err
		}
		opts = append(opts, query.WithExtractor(ix))
	}

	engine := query.NewEngine(env.root, query.Static(snap), env.cfg, env.logger, opts...)
	return engine, closer, nil
}

// openVCS returns nil when the root is not a git work tree.
func (env *cliEnv) openVCS() vcs.Provider {
	p, err := vcs.OpenGit(env.root, env.cfg.VCS.MaxCommits, env.logger)
	if err != nil {
		env.logger.Debug("VCS unavailable", "error", err)
		return nil
	}
	return p
}

// openVectorStore returns nil when dense search is disabled or misconfigured.
// ensureSchema creates the Weaviate class when it does not exist yet.
func (env *cliEnv) openVectorStore(ctx context.Context, ensureSchema bool) *vectorstore.BreakerStore {
	if !env.cfg.Vector.Enabled {
		return nil
	}
	embedder := vectorstore.NewOpenAIEmbedder(env.cfg.Vector, env.logger)
	ws, err := vectorstore.NewWeaviateStore(env.cfg.Vector, embedder, env.logger)
	if err != nil {
		env.logger.Warn("Vector store unavailable, continuing without dense search", "error", err)
		return nil
	}
	if ensureSchema {
		if err := ws.EnsureSchema(ctx); err != nil {
			env.logger.Warn("Vector store schema unavailable, continuing without dense search", "error", err)
			return nil
		}
	}
	return vectorstore.NewBreakerStore(ws, vectorstore.DefaultBreakerConfig(), env.logger)
}

// newContext is cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// render writes resp in the selected format.
func (env *cliEnv) render(resp interface{}) error {
	return FormatResponse(env.out, resp, env.format)
}
