package main

import (
	"github.com/spf13/cobra"

	"hammy/internal/version"
)

var (
	rootFlag    string
	formatFlag  string
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "hammy",
	Short: "hammy - multi-language code intelligence",
	Long: `hammy parses PHP, JavaScript, TypeScript, Python and Go sources into a
graph of symbols and relations, links HTTP consumers to the endpoints they call
across languages, and answers navigation, impact, hotspot and search queries
over the indexed graph.

Run "hammy index" once, then query with the other commands.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("hammy version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", "", "Project root (default: current directory)")
	pf.StringVar(&formatFlag, "format", "human", "Output format (json, human)")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVar(&quietFlag, "quiet", false, "Suppress log output")
}
