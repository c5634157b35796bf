package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var diffDepth int

var diffCmd = &cobra.Command{
	Use:   "diff [patch-file]",
	Short: "Analyze the impact of a unified diff",
	Long: `Read a unified diff, find the symbol definitions it touches and report who
calls them, with a risk level per symbol.

The diff is read from the given file, or from stdin when the file is "-" or
omitted.

Examples:
  git diff | hammy diff
  git diff main...HEAD > change.patch && hammy diff change.patch --depth=3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().IntVar(&diffDepth, "depth", 2, "Caller depth per changed symbol (1-6)")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	text, err := readDiff(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	ctx, cancel := newContext()
	defer cancel()

	engine, closeDB, err := env.openEngine(ctx, engineSetup{})
	if err != nil {
		return err
	}
	defer closeDB()

	return env.render(engine.Diff(text, diffDepth))
}

func readDiff(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading diff from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading diff: %w", err)
	}
	return string(data), nil
}
