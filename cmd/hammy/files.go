package main

import (
	"github.com/spf13/cobra"
)

var filesLanguage string

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Long: `List every indexed file with the languages of the symbols it holds.

Examples:
  hammy files
  hammy files --lang=php`,
	Args: cobra.NoArgs,
	RunE: runFiles,
}

func init() {
	filesCmd.Flags().StringVar(&filesLanguage, "lang", "", "Only files holding symbols of this language")
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
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

	return env.render(engine.Files(filesLanguage))
}
