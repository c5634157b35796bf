package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/paths"
	"hammy/internal/query"
)

var (
	astFilter  string
	astIndexed bool
)

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Show the symbols defined in a file",
	Long: `Parse a file and list the symbols it defines, or its imports.

By default the file is parsed from disk, so unsaved changes to the index do
not matter. Use --indexed to read the stored graph instead.

Filters: all, classes, functions, methods, endpoints, imports

Examples:
  hammy ast src/Controller/UserController.php
  hammy ast web/api.js --filter=functions
  hammy ast app.py --filter=imports --indexed`,
	Args: cobra.ExactArgs(1),
	RunE: runAST,
}

func init() {
	astCmd.Flags().StringVar(&astFilter, "filter", string(query.ASTAll), "Node filter (all, classes, functions, methods, endpoints, imports)")
	astCmd.Flags().BoolVar(&astIndexed, "indexed", false, "Read the stored graph instead of parsing the file")
	rootCmd.AddCommand(astCmd)
}

func runAST(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	filter, err := query.ParseASTFilter(astFilter)
	if err != nil {
		return err
	}
	file, err := repoRelative(env.root, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	engine, closeDB, err := env.openEngine(ctx, engineSetup{
		allowMissingIndex: !astIndexed,
		liveParsing:       !astIndexed,
	})
	if err != nil {
		return err
	}
	defer closeDB()

	resp, err := engine.AST(ctx, file, filter)
	if err != nil {
		return err
	}
	return env.render(resp)
}

// repoRelative turns an absolute path into a project-relative one.
// Relative paths are taken as already relative to the project root.
func repoRelative(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		return paths.NormalizePath(p), nil
	}
	if !paths.IsWithinRepo(p, root) {
		return "", hammyerrors.Newf(hammyerrors.InvalidArgument, "%s is outside the project root", p)
	}
	return paths.CanonicalizePath(p, root)
}
