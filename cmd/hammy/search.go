package main

import (
	"github.com/spf13/cobra"

	"hammy/internal/query"
	"hammy/internal/search"
)

var (
	searchMode     string
	searchLimit    int
	searchLanguage string
	searchType     string
	searchLexical  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search symbols by meaning and keywords",
	Long: `Search symbols with BM25 keyword ranking fused with dense vector similarity.

Hybrid mode works without a vector store, falling back to keywords alone.
Semantic mode needs the vector store and diversifies results with MMR.

Examples:
  hammy search "renew subscription"
  hammy search "payment retry" --mode=semantic --limit=5
  hammy search invoice --lang=php --type=method --lexical`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchMode, "mode", string(query.SearchHybrid), "Search mode (hybrid, semantic)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results (1-100)")
	searchCmd.Flags().StringVar(&searchLanguage, "lang", "", "Filter by language")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Filter by symbol type")
	searchCmd.Flags().BoolVar(&searchLexical, "lexical", false, "Skip the vector store in hybrid mode")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	resp, err := engine.Search(ctx, args[0], query.SearchMode(searchMode), search.Options{
		Limit:       searchLimit,
		Language:    searchLanguage,
		NodeType:    searchType,
		LexicalOnly: searchLexical,
	})
	if err != nil {
		return err
	}
	return env.render(resp)
}
