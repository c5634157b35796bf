package main

import (
	"github.com/spf13/cobra"

	"hammy/internal/impact"
)

var (
	impactDepth     int
	impactDirection string
)

var impactCmd = &cobra.Command{
	Use:   "impact <symbol>",
	Short: "Analyze change impact",
	Long: `Walk the call graph outward from a symbol.

Callers are the symbols that would be affected by changing it; callees are
the symbols it depends on. Each affected symbol reports the hop at which it
was first reached. Depth is clamped to 1-6.

Examples:
  hammy impact getRenew
  hammy impact getRenew --depth=3
  hammy impact UserService.save --direction=both`,
	Args: cobra.ExactArgs(1),
	RunE: runImpact,
}

func init() {
	impactCmd.Flags().IntVar(&impactDepth, "depth", 2, "Maximum traversal depth (1-6)")
	impactCmd.Flags().StringVar(&impactDirection, "direction", string(impact.Callers), "Direction (callers, callees, both)")
	rootCmd.AddCommand(impactCmd)
}

func runImpact(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	dir, err := impact.ParseDirection(impactDirection)
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

	resp, err := engine.Impact(args[0], impactDepth, dir)
	if err != nil {
		return err
	}
	return env.render(resp)
}
