package main

import (
	"github.com/spf13/cobra"
)

var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "List cross-language HTTP bridges",
	Long: `List the links between HTTP consumers and the endpoints they call,
strongest first. Exact path matches score 1.0, parameter-aware matches 0.8.

Examples:
  hammy bridges
  hammy bridges --format=json`,
	Args: cobra.NoArgs,
	RunE: runBridges,
}

func init() {
	rootCmd.AddCommand(bridgesCmd)
}

func runBridges(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
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

	return env.render(engine.Bridges())
}
