package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"hammy/internal/diff"
	"hammy/internal/graph"
	"hammy/internal/hotspots"
	"hammy/internal/impact"
	"hammy/internal/output"
	"hammy/internal/query"
)

// FormatResponse writes resp as deterministic JSON or as terminal text.
func FormatResponse(w io.Writer, resp interface{}, format output.Format) error {
	switch format {
	case output.FormatJSON:
		return output.WriteJSON(w, resp)
	case output.FormatHuman:
		_, err := io.WriteString(w, formatHuman(resp))
		return err
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// formatHuman falls back to JSON for types without a text rendering.
func formatHuman(resp interface{}) string {
	switch v := resp.(type) {
	case *query.StatusResponse:
		return formatStatusHuman(v)
	case *IndexResponseCLI:
		return formatIndexHuman(v)
	case *ConfigShowResponse:
		return formatConfigHuman(v)
	case *query.ASTResponse:
		return formatASTHuman(v)
	case *query.FilesResponse:
		return formatFilesHuman(v)
	case *query.SymbolsResponse:
		return formatSymbolsHuman(v)
	case *query.UsagesResponse:
		return impact.FormatUsages(v.Symbol, v.Usages)
	case *impact.Result:
		return impact.FormatImpact(v)
	case *query.HotspotsResponse:
		return formatHotspotsHuman(v)
	case *diff.Report:
		return diff.FormatReport(v)
	case *query.SearchResponse:
		return formatSearchHuman(v)
	case *query.BridgesResponse:
		return formatBridgesHuman(v)
	case *query.LogResponse:
		return formatLogHuman(v)
	case *query.BlameResponse:
		return formatBlameHuman(v)
	case *query.ChurnResponse:
		return formatChurnHuman(v)
	default:
		data, err := output.DeterministicEncode(resp)
		if err != nil {
			return fmt.Sprintf("%v\n", resp)
		}
		return string(data) + "\n"
	}
}

func formatStatusHuman(s *query.StatusResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", s.Project)
	fmt.Fprintf(&b, "Root: %s\n", s.Root)
	fmt.Fprintf(&b, "Total files: %d\n", s.Stats.Files)
	fmt.Fprintf(&b, "Total symbols: %d\n", s.Stats.Nodes)
	fmt.Fprintf(&b, "Total edges: %d\n", s.Stats.Edges)

	if len(s.Stats.ByLanguage) > 0 {
		b.WriteString("\nBy language:\n")
		for _, lang := range sortedKeys(s.Stats.ByLanguage) {
			fmt.Fprintf(&b, "  %s: %d symbols\n", lang, s.Stats.ByLanguage[lang])
		}
	}
	if len(s.Stats.ByType) > 0 {
		byType := make(map[string]int, len(s.Stats.ByType))
		for t, n := range s.Stats.ByType {
			byType[string(t)] = n
		}
		b.WriteString("\nBy type:\n")
		for _, t := range sortedKeys(byType) {
			fmt.Fprintf(&b, "  %s: %d\n", t, byType[t])
		}
	}
	fmt.Fprintf(&b, "\nCross-language bridges: %d\n", s.Stats.BridgeEdges)

	if s.Index != nil {
		fmt.Fprintf(&b, "\nLast indexed: %s", s.Index.CreatedAt.Format("2006-01-02 15:04:05"))
		if s.Index.CommitHash != "" {
			fmt.Fprintf(&b, " at %s", shortRev(s.Index.CommitHash))
		}
		b.WriteString("\n")
	}
	if s.Freshness != nil {
		if s.Freshness.Fresh {
			b.WriteString("Index: fresh\n")
		} else {
			fmt.Fprintf(&b, "Index: stale (%s)\n", s.Freshness.Reason)
		}
	}
	fmt.Fprintf(&b, "Vector store: %s\n", onOff(s.VectorStore))
	fmt.Fprintf(&b, "VCS: %s\n", onOff(s.VCS))
	return b.String()
}

func formatIndexHuman(r *IndexResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %s\n", r.Root)
	fmt.Fprintf(&b, "  Files processed: %d\n", r.Stats.FilesProcessed)
	fmt.Fprintf(&b, "  Files skipped: %d\n", r.Stats.FilesSkipped)
	fmt.Fprintf(&b, "  Symbols extracted: %d\n", r.Stats.NodesExtracted)
	fmt.Fprintf(&b, "  Edges extracted: %d\n", r.Stats.EdgesExtracted)
	fmt.Fprintf(&b, "  Cross-language bridges: %d\n", r.Stats.BridgeEdges)
	fmt.Fprintf(&b, "  Symbols indexed: %d\n", r.Stats.NodesIndexed)
	fmt.Fprintf(&b, "  Errors: %d\n", len(r.Stats.Errors))
	for i, fe := range r.Stats.Errors {
		if i == maxErrorsShown {
			fmt.Fprintf(&b, "    ... and %d more\n", len(r.Stats.Errors)-maxErrorsShown)
			break
		}
		fmt.Fprintf(&b, "    %s: %s\n", fe.Path, fe.Message)
	}
	fmt.Fprintf(&b, "  Duration: %dms\n", r.Stats.DurationMs)
	return b.String()
}

const maxErrorsShown = 10

func formatASTHuman(r *query.ASTResponse) string {
	var b strings.Builder
	if r.Filter == query.ASTImports {
		if len(r.Imports) == 0 {
			return "No imports found.\n"
		}
		for _, imp := range r.Imports {
			fmt.Fprintf(&b, "import: %s\n", imp)
		}
		return b.String()
	}
	if len(r.Nodes) == 0 {
		return "No symbols found.\n"
	}
	for _, n := range r.Nodes {
		b.WriteString(formatNodeLine(n))
		b.WriteString("\n")
	}
	return b.String()
}

// formatNodeLine renders "type: name (file:start-end) [vis] [async] -> ret | summary".
func formatNodeLine(n *graph.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s:%d-%d)", n.Type, n.Name, n.Loc.File, n.Loc.Lines[0], n.Loc.Lines[1])
	if n.Meta.Visibility != "" {
		fmt.Fprintf(&b, " [%s]", n.Meta.Visibility)
	}
	if n.Meta.IsAsync {
		b.WriteString(" [async]")
	}
	if n.Meta.ReturnType != "" {
		fmt.Fprintf(&b, " -> %s", n.Meta.ReturnType)
	}
	if n.Summary != "" {
		fmt.Fprintf(&b, " | %s", n.Summary)
	}
	return b.String()
}

func formatFilesHuman(r *query.FilesResponse) string {
	if len(r.Files) == 0 {
		return "No files found.\n"
	}
	var b strings.Builder
	for _, f := range r.Files {
		fmt.Fprintf(&b, "%s [%s]\n", f.Path, strings.Join(f.Languages, ", "))
	}
	return b.String()
}

func formatSymbolsHuman(r *query.SymbolsResponse) string {
	if len(r.Symbols) == 0 {
		return fmt.Sprintf("No symbols matching '%s' found.\n", r.Query)
	}
	var b strings.Builder
	for _, n := range r.Symbols {
		b.WriteString(formatNodeLine(n))
		b.WriteString("\n")
	}
	if more := r.Total - len(r.Symbols); more > 0 {
		fmt.Fprintf(&b, "... and %d more results.\n", more)
	}
	return b.String()
}

func formatHotspotsHuman(r *query.HotspotsResponse) string {
	rows := make([]hotspots.Row, len(r.Hotspots))
	for i, h := range r.Hotspots {
		rows[i] = h.Row
	}
	var b strings.Builder
	b.WriteString(hotspots.FormatRows(rows))
	if len(rows) > 0 {
		fmt.Fprintf(&b, "\nChurn source: %s\n", r.ChurnSource)
	}
	for _, h := range r.Hotspots {
		if h.Trend == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s (%+.2f/day, 30d projection %.2f, %d samples)\n",
			h.Name, h.Trend.Direction, h.Trend.Velocity, h.Trend.Projection30d, h.Trend.DataPoints)
	}
	return b.String()
}

func formatSearchHuman(r *query.SearchResponse) string {
	if len(r.Results) == 0 {
		return fmt.Sprintf("No results for '%s'.\n", r.Query)
	}
	var b strings.Builder
	mode := string(r.Mode)
	if r.Mode == query.SearchHybrid && !r.Dense {
		mode += ", lexical only"
	}
	fmt.Fprintf(&b, "Results for '%s' (%s):\n", r.Query, mode)
	for i, res := range r.Results {
		fmt.Fprintf(&b, "%3d. %s: %s (%s:%d-%d) score=%s\n",
			i+1, res.Type, res.Name, res.File, res.Lines[0], res.Lines[1], output.FormatFloat(res.Score))
		if res.Summary != "" {
			fmt.Fprintf(&b, "     %s\n", res.Summary)
		}
	}
	return b.String()
}

func formatBridgesHuman(r *query.BridgesResponse) string {
	if len(r.Bridges) == 0 {
		return "No cross-language bridges found.\n"
	}
	var b strings.Builder
	for _, br := range r.Bridges {
		fmt.Fprintf(&b, "BRIDGE: %s (confidence: %.0f%%)\n", br.Context, br.Confidence*100)
		if br.Consumer != nil && br.Provider != nil {
			fmt.Fprintf(&b, "  %s:%d (%s) -> %s:%d (%s)\n",
				br.Consumer.Loc.File, br.Consumer.StartLine(), br.Consumer.Language,
				br.Provider.Loc.File, br.Provider.StartLine(), br.Provider.Language)
		}
	}
	return b.String()
}

func formatLogHuman(r *query.LogResponse) string {
	if len(r.Commits) == 0 {
		return "No commits found.\n"
	}
	var b strings.Builder
	for _, c := range r.Commits {
		fmt.Fprintf(&b, "%s %s %s  %s\n", shortRev(c.Revision), c.Date.Format("2006-01-02"), c.Author, firstLine(c.Message))
	}
	return b.String()
}

func formatBlameHuman(r *query.BlameResponse) string {
	if len(r.Lines) == 0 {
		return fmt.Sprintf("No blame information for %s.\n", r.Path)
	}
	width := 0
	for _, l := range r.Lines {
		if len(l.Author) > width {
			width = len(l.Author)
		}
	}
	var b strings.Builder
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s %-*s %5d  %s\n", shortRev(l.Revision), width, l.Author, l.LineNumber, l.Content)
	}
	return b.String()
}

func formatChurnHuman(r *query.ChurnResponse) string {
	if len(r.Files) == 0 {
		return fmt.Sprintf("No changes in the last %d days.\n", r.WindowDays)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Churn over the last %d days:\n", r.WindowDays)
	for _, f := range r.Files {
		fmt.Fprintf(&b, "  %5d  %s\n", f.Changes, f.File)
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortRev(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "available"
	}
	return "unavailable"
}
