package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/export"
	"hammy/internal/graph"
)

var (
	exportAs            string
	exportOutput        string
	exportFrom          string
	exportTypes         string
	exportMinComplexity int
	exportMaxSymbols    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the code graph",
	Long: `Write the indexed graph as JSON, zstd-compressed JSON, a SCIP index or a
compact text outline organized by directory.

With --from, an earlier JSON export is converted instead of the stored index.

Examples:
  hammy export --as=json -o graph.json
  hammy export --as=json.zst -o graph.json.zst
  hammy export --as=scip -o index.scip
  hammy export --as=text --types=class,method --max-symbols=500
  hammy export --from=graph.json.zst --as=scip -o index.scip`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportAs, "as", string(export.FormatJSON), "Export format (json, json.zst, scip, text)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Convert this JSON export instead of the stored index")
	exportCmd.Flags().StringVar(&exportTypes, "types", "", "Comma-separated symbol types to keep")
	exportCmd.Flags().IntVar(&exportMinComplexity, "min-complexity", 0, "Drop functions below this complexity")
	exportCmd.Flags().IntVar(&exportMaxSymbols, "max-symbols", 0, "Maximum symbols to export (0 = unlimited)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd)
	if err != nil {
		return err
	}
	format, ok := export.ParseFormat(exportAs)
	if !ok {
		return hammyerrors.Newf(hammyerrors.InvalidArgument, "unknown export format %q (valid: json, json.zst, scip, text)", exportAs)
	}
	types, err := parseNodeTypes(exportTypes)
	if err != nil {
		return err
	}

	var snap *graph.Snapshot
	if exportFrom != "" {
		snap, err = readExport(exportFrom)
		if err != nil {
			return err
		}
	} else {
		ctx, cancel := newContext()
		defer cancel()
		engine, closeDB, err := env.openEngine(ctx, engineSetup{})
		if err != nil {
			return err
		}
		defer closeDB()
		snap = engine.Snapshot()
	}

	opts := export.Options{
		Project:       env.cfg.Project.Name,
		Types:         types,
		MinComplexity: exportMinComplexity,
		MaxSymbols:    exportMaxSymbols,
	}
	exporter := export.NewExporter(env.logger)
	if exportOutput == "" {
		return exporter.Write(env.out, snap, format, opts)
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", exportOutput, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	if err := exporter.Write(bw, snap, format, opts); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", exportOutput, err)
	}
	return f.Close()
}

func readExport(path string) (*graph.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := export.ReadJSON(f)
	if err != nil {
		return nil, err
	}
	return doc.Graph().Snapshot(), nil
}

func parseNodeTypes(list string) ([]graph.NodeType, error) {
	if list == "" {
		return nil, nil
	}
	var out []graph.NodeType
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		t, ok := graph.ParseNodeType(s)
		if !ok {
			return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "unknown symbol type %q", s)
		}
		out = append(out, t)
	}
	return out, nil
}
