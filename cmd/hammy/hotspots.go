package main

import (
	"github.com/spf13/cobra"

	"hammy/internal/hotspots"
	"hammy/internal/query"
)

var (
	hotspotsTop      int
	hotspotsType     string
	hotspotsLanguage string
	hotspotsFile     string
	hotspotsTrend    bool
)

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots",
	Short: "Rank symbols by callers and churn",
	Long: `Rank symbols by how many places call them and how often their file changes.

Churn comes from git over the configured window when available, otherwise
from history recorded at index time.

Examples:
  hammy hotspots
  hammy hotspots --top=50 --type=method
  hammy hotspots --lang=php --file=src/Billing
  hammy hotspots --trend`,
	Args: cobra.NoArgs,
	RunE: runHotspots,
}

func init() {
	hotspotsCmd.Flags().IntVar(&hotspotsTop, "top", hotspots.DefaultTopN, "Number of hotspots to return")
	hotspotsCmd.Flags().StringVar(&hotspotsType, "type", "", "Filter by symbol type")
	hotspotsCmd.Flags().StringVar(&hotspotsLanguage, "lang", "", "Filter by language")
	hotspotsCmd.Flags().StringVar(&hotspotsFile, "file", "", "Only files whose path contains this")
	hotspotsCmd.Flags().BoolVar(&hotspotsTrend, "trend", false, "Include score trends from recorded samples")
	rootCmd.AddCommand(hotspotsCmd)
}

func runHotspots(cmd *cobra.Command, args []string) error {
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

	resp, err := engine.Hotspots(ctx, query.HotspotsRequest{
		Options: hotspots.Options{
			TopN:       hotspotsTop,
			NodeType:   hotspotsType,
			Language:   hotspotsLanguage,
			FileFilter: hotspotsFile,
		},
		Trend: hotspotsTrend,
	})
	if err != nil {
		return err
	}
	return env.render(resp)
}
