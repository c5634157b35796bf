package main

import (
	"github.com/spf13/cobra"

	"hammy/internal/search"
)

var (
	symbolsLimit    int
	symbolsLanguage string
	symbolsType     string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <query>",
	Short: "Find symbols by name or summary",
	Long: `Find symbols whose name or summary contains the query, case-insensitively.

Examples:
  hammy symbols renew
  hammy symbols user --type=class
  hammy symbols handler --lang=go --limit=50`,
	Args: cobra.ExactArgs(1),
	RunE: runSymbols,
}

func init() {
	symbolsCmd.Flags().IntVar(&symbolsLimit, "limit", search.DefaultSymbolLimit, "Maximum results")
	symbolsCmd.Flags().StringVar(&symbolsLanguage, "lang", "", "Filter by language")
	symbolsCmd.Flags().StringVar(&symbolsType, "type", "", "Filter by symbol type (class, function, method, endpoint, ...)")
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
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

	resp, err := engine.Symbols(args[0], search.Options{
		Language: symbolsLanguage,
		NodeType: symbolsType,
	}, symbolsLimit)
	if err != nil {
		return err
	}
	return env.render(resp)
}
