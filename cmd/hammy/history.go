package main

import (
	"github.com/spf13/cobra"

	"hammy/internal/query"
)

var (
	historyLimit  int
	historyWindow int
	historyTop    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query version control history",
	Long: `Query git history for the project: recent commits, line authorship and
per-file churn.`,
}

var historyLogCmd = &cobra.Command{
	Use:   "log [path]",
	Short: "Show recent commits",
	Long: `Show recent commits, optionally only those touching a path.

Examples:
  hammy history log
  hammy history log src/Billing/Invoice.php --limit=5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryLog,
}

var historyBlameCmd = &cobra.Command{
	Use:   "blame <path>",
	Short: "Show who last changed each line of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryBlame,
}

var historyChurnCmd = &cobra.Command{
	Use:   "churn",
	Short: "Show the most frequently changed files",
	Long: `Count commits per file over a recent window.

Examples:
  hammy history churn
  hammy history churn --window=30 --top=10`,
	Args: cobra.NoArgs,
	RunE: runHistoryChurn,
}

func init() {
	historyLogCmd.Flags().IntVar(&historyLimit, "limit", query.DefaultLogLimit, "Maximum commits")
	historyChurnCmd.Flags().IntVar(&historyWindow, "window", 0, "Window in days (default: vcs.churn_window_days)")
	historyChurnCmd.Flags().IntVar(&historyTop, "top", 20, "Number of files to show (0 = all)")

	historyCmd.AddCommand(historyLogCmd, historyBlameCmd, historyChurnCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistoryEngine serves history without requiring a stored index.
func openHistoryEngine(cmd *cobra.Command) (*cliEnv, *query.Engine, error) {
	env, err := newEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	var opts []query.Option
	if p := env.openVCS(); p != nil {
		opts = append(opts, query.WithVCS(p))
	}
	engine := query.NewEngine(env.root, query.Static(nil), env.cfg, env.logger, opts...)
	return env, engine, nil
}

func runHistoryLog(cmd *cobra.Command, args []string) error {
	env, engine, err := openHistoryEngine(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	path := ""
	if len(args) == 1 {
		if path, err = repoRelative(env.root, args[0]); err != nil {
			return err
		}
	}
	resp, err := engine.Log(ctx, path, historyLimit)
	if err != nil {
		return err
	}
	return env.render(resp)
}

func runHistoryBlame(cmd *cobra.Command, args []string) error {
	env, engine, err := openHistoryEngine(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	path, err := repoRelative(env.root, args[0])
	if err != nil {
		return err
	}
	resp, err := engine.Blame(ctx, path)
	if err != nil {
		return err
	}
	return env.render(resp)
}

func runHistoryChurn(cmd *cobra.Command, args []string) error {
	env, engine, err := openHistoryEngine(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	resp, err := engine.Churn(ctx, historyWindow, historyTop)
	if err != nil {
		return err
	}
	return env.render(resp)
}
