package export

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"hammy/internal/graph"
	"hammy/internal/resolve"
)

// DirectorySummary is the overview row of one directory.
type DirectorySummary struct {
	Path        string   `json:"path"`
	SymbolCount int      `json:"symbol_count"`
	FileCount   int      `json:"file_count"`
	TopSymbols  []string `json:"top_symbols,omitempty"`
}

// Connection counts references from one directory into another.
type Connection struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Kind      string `json:"kind"` // "calls" or "network"
	Count     int    `json:"count"`
	TopCaller string `json:"top_caller,omitempty"`
	TopCallee string `json:"top_callee,omitempty"`
}

// OrganizedExport contains the structured output.
type OrganizedExport struct {
	Metadata     Metadata           `json:"metadata"`
	DirectoryMap []DirectorySummary `json:"directory_map"`
	Connections  []Connection       `json:"connections"`
	Directories  []Directory        `json:"directories"`
}

// Organize adds a directory map and the cross-directory connections of s
// to an export. Calls count only when the callee name resolves to exactly
// one symbol; bridge edges count as network connections.
func Organize(doc *Export, s *graph.Snapshot) *OrganizedExport {
	org := &OrganizedExport{
		Metadata:     doc.Metadata,
		DirectoryMap: make([]DirectorySummary, 0, len(doc.Directories)),
		Connections:  []Connection{},
		Directories:  doc.Directories,
	}

	for _, d := range doc.Directories {
		sum := DirectorySummary{Path: d.Path, FileCount: len(d.Files)}
		var all []Symbol
		for _, f := range d.Files {
			all = append(all, f.Symbols...)
		}
		sum.SymbolCount = len(all)
		sort.SliceStable(all, func(i, j int) bool { return all[i].Complexity > all[j].Complexity })
		for i := 0; i < len(all) && i < 3; i++ {
			sum.TopSymbols = append(sum.TopSymbols, all[i].Name)
		}
		org.DirectoryMap = append(org.DirectoryMap, sum)
	}
	sort.SliceStable(org.DirectoryMap, func(i, j int) bool {
		return org.DirectoryMap[i].SymbolCount > org.DirectoryMap[j].SymbolCount
	})

	if s != nil {
		org.Connections = connections(s)
	}
	return org
}

type connKey struct{ from, to, kind string }

type connAcc struct {
	count   int
	callers map[string]int
	callees map[string]int
}

func connections(s *graph.Snapshot) []Connection {
	idx := resolve.ForSnapshot(s)
	acc := make(map[connKey]*connAcc)
	add := func(kind string, src, dst *graph.Node) {
		from, to := path.Dir(src.Loc.File), path.Dir(dst.Loc.File)
		if from == to {
			return
		}
		k := connKey{from, to, kind}
		a, ok := acc[k]
		if !ok {
			a = &connAcc{callers: map[string]int{}, callees: map[string]int{}}
			acc[k] = a
		}
		a.count++
		a.callers[src.Name]++
		a.callees[dst.Name]++
	}

	for _, e := range s.EdgesOf(graph.RelCalls) {
		src, ok := s.Node(e.Source)
		if !ok {
			continue
		}
		cands := idx.LookupFrom(resolve.CalleeName(e.Metadata.Context), src.Language)
		if len(cands) == 1 {
			add("calls", src, cands[0])
		}
	}
	for _, e := range s.Bridges() {
		src, ok1 := s.Node(e.Source)
		dst, ok2 := s.Node(e.Target)
		if ok1 && ok2 {
			add("network", src, dst)
		}
	}

	out := make([]Connection, 0, len(acc))
	for k, a := range acc {
		out = append(out, Connection{
			From:      k.from,
			To:        k.to,
			Kind:      k.kind,
			Count:     a.count,
			TopCaller: top(a.callers),
			TopCallee: top(a.callees),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// top returns the most frequent key, lowest name first on ties.
func top(counts map[string]int) string {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

// FormatOrganizedText generates LLM-friendly text from organized export.
func FormatOrganizedText(org *OrganizedExport) string {
	var sb strings.Builder

	title := org.Metadata.Project
	if title == "" {
		title = "project"
	}
	fmt.Fprintf(&sb, "# Codebase: %s\n", title)
	fmt.Fprintf(&sb, "# Generated: %s\n", org.Metadata.Generated)
	fmt.Fprintf(&sb, "# Symbols: %d | Files: %d | Bridges: %d\n\n",
		org.Metadata.SymbolCount, org.Metadata.FileCount, org.Metadata.BridgeCount)

	sb.WriteString("## Directory Map\n\n")
	sb.WriteString("| Directory | Symbols | Files | Key Symbols |\n")
	sb.WriteString("|-----------|---------|-------|-------------|\n")
	for _, d := range org.DirectoryMap {
		key := strings.Join(d.TopSymbols, ", ")
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(&sb, "| %s | %d | %d | %s |\n", d.Path, d.SymbolCount, d.FileCount, key)
	}
	sb.WriteString("\n")

	if len(org.Connections) > 0 {
		sb.WriteString("## Cross-Directory Connections\n\n")
		for _, c := range org.Connections {
			fmt.Fprintf(&sb, "- %s -> %s (%s x%d, e.g. %s -> %s)\n",
				c.From, c.To, c.Kind, c.Count, c.TopCaller, c.TopCallee)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Directory Details\n\n")
	for _, d := range org.Directories {
		fmt.Fprintf(&sb, "### %s/\n\n", d.Path)
		for _, f := range d.Files {
			fmt.Fprintf(&sb, "**%s** (%s)\n", path.Base(f.Path), f.Language)
			for _, sym := range f.Symbols {
				sb.WriteString(formatSymbolLine(sym) + "\n")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("---\n")
	sb.WriteString("Legend: $ class/interface, # function/method, @ endpoint, % variable/table, c = cyclomatic complexity\n")
	return sb.String()
}
