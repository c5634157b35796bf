package main

import (
	"github.com/spf13/cobra"
)

var usagesFile string

var usagesCmd = &cobra.Command{
	Use:   "usages <symbol>",
	Short: "Find call sites of a symbol",
	Long: `Find every call whose source text mentions the symbol as a whole word.

Examples:
  hammy usages save
  hammy usages getRenew --file=src/renewal`,
	Args: cobra.ExactArgs(1),
	RunE: runUsages,
}

func init() {
	usagesCmd.Flags().StringVar(&usagesFile, "file", "", "Only call sites in files whose path contains this")
	rootCmd.AddCommand(usagesCmd)
}

func runUsages(cmd *cobra.Command, args []string) error {
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

	resp, err := engine.Usages(args[0], usagesFile)
	if err != nil {
		return err
	}
	return env.render(resp)
}
