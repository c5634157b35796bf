package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"hammy/internal/graph"
	"hammy/internal/version"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Exporter renders snapshots in the supported formats.
type Exporter struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewExporter creates a new exporter
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger, now: time.Now}
}

// Build flattens a snapshot into the export document. Files appear in path
// order, grouped by directory.
func (e *Exporter) Build(s *graph.Snapshot, opts Options) *Export {
	keep := make(map[graph.NodeType]bool, len(opts.Types))
	for _, t := range opts.Types {
		keep[t] = true
	}

	out := &Export{
		Metadata: Metadata{
			Project:   opts.Project,
			Tool:      "hammy " + version.Version,
			Generated: e.now().UTC().Format(time.RFC3339),
			Version:   s.Version(),
		},
		Directories: []Directory{},
		Bridges:     append([]graph.Edge{}, s.Bridges()...),
	}

	dirIndex := make(map[string]int)
	total := 0
	for _, f := range s.Files() {
		if opts.MaxSymbols > 0 && total >= opts.MaxSymbols {
			break
		}
		file := File{Path: f, Symbols: []Symbol{}, Edges: []graph.Edge{}}
		for _, n := range s.NodesInFile(f) {
			if file.Language == "" {
				file.Language = n.Language
			}
			if len(keep) > 0 && !keep[n.Type] {
				continue
			}
			if opts.MinComplexity > 0 && isCallable(n) && complexity(n) < opts.MinComplexity {
				continue
			}
			file.Symbols = append(file.Symbols, symbolFor(n))
			total++
			if opts.MaxSymbols > 0 && total >= opts.MaxSymbols {
				break
			}
		}
		if opts.IncludeEdges {
			file.Edges = append(file.Edges, s.FileEdges(f)...)
			out.Metadata.EdgeCount += len(file.Edges)
		}
		if len(file.Symbols) == 0 && len(file.Edges) == 0 {
			continue
		}

		dir := path.Dir(f)
		i, ok := dirIndex[dir]
		if !ok {
			i = len(out.Directories)
			dirIndex[dir] = i
			out.Directories = append(out.Directories, Directory{Path: dir})
		}
		out.Directories[i].Files = append(out.Directories[i].Files, file)
		out.Metadata.FileCount++
		out.Metadata.SymbolCount += len(file.Symbols)
	}
	out.Metadata.BridgeCount = len(out.Bridges)
	return out
}

func symbolFor(n *graph.Node) Symbol {
	return Symbol{
		ID:         n.ID,
		Type:       n.Type,
		Name:       n.Name,
		Line:       n.Loc.Lines[0],
		EndLine:    n.Loc.Lines[1],
		Complexity: complexity(n),
		Parameters: n.Meta.Parameters,
		ReturnType: n.Meta.ReturnType,
		Visibility: n.Meta.Visibility,
		IsAsync:    n.Meta.IsAsync,
		Summary:    n.Summary,
	}
}

func isCallable(n *graph.Node) bool { return isCallableType(n.Type) }

func complexity(n *graph.Node) int {
	if n.Meta.ComplexityScore == nil {
		return 0
	}
	return *n.Meta.ComplexityScore
}

// Write renders s to w in the given format.
func (e *Exporter) Write(w io.Writer, s *graph.Snapshot, format Format, opts Options) error {
	start := e.now()
	var err error
	switch format {
	case FormatJSON:
		err = writeJSON(w, e.Build(s, withEdges(opts)))
	case FormatJSONZstd:
		err = e.writeZstd(w, e.Build(s, withEdges(opts)))
	case FormatSCIP:
		err = e.WriteSCIP(w, s, opts)
	case FormatText:
		_, err = io.WriteString(w, FormatOrganizedText(Organize(e.Build(s, opts), s)))
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return fmt.Errorf("writing %s export: %w", format, err)
	}
	e.logger.Info("Exported snapshot", "format", string(format), "nodes", s.NodeCount(), "duration", time.Since(start))
	return nil
}

func withEdges(opts Options) Options {
	opts.IncludeEdges = true
	return opts
}

func writeJSON(w io.Writer, doc *Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (e *Exporter) writeZstd(w io.Writer, doc *Export) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// ReadJSON decodes a JSON export, transparently decompressing zstd input.
func ReadJSON(r io.Reader) (*Export, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, err
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var doc Export
	if err := json.NewDecoder(src).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	return &doc, nil
}

// Graph rebuilds a graph from a JSON export that included edges.
func (doc *Export) Graph() *graph.Graph {
	g := graph.New()
	for _, d := range doc.Directories {
		for _, f := range d.Files {
			nodes := make([]*graph.Node, 0, len(f.Symbols))
			for _, sym := range f.Symbols {
				nodes = append(nodes, sym.node(f))
			}
			g.AddFile(f.Path, nodes, f.Edges)
		}
	}
	g.SetBridges(doc.Bridges)
	return g
}

func (sym Symbol) node(f File) *graph.Node {
	n := &graph.Node{
		ID:       sym.ID,
		Type:     sym.Type,
		Name:     sym.Name,
		Loc:      graph.Location{File: f.Path, Lines: [2]int{sym.Line, sym.EndLine}},
		Language: f.Language,
		Meta: graph.NodeMeta{
			Visibility: sym.Visibility,
			IsAsync:    sym.IsAsync,
			Parameters: sym.Parameters,
			ReturnType: sym.ReturnType,
		},
		Summary: sym.Summary,
	}
	if n.Meta.Parameters == nil {
		n.Meta.Parameters = []string{}
	}
	if sym.Complexity > 0 {
		c := sym.Complexity
		n.Meta.ComplexityScore = &c
	}
	return n
}

// symbolPrefix marks a symbol in the text outline.
func symbolPrefix(t graph.NodeType) string {
	switch t {
	case graph.NodeClass, graph.NodeInterface:
		return "$"
	case graph.NodeEndpoint:
		return "@"
	case graph.NodeVariable, graph.NodeTable:
		return "%"
	default:
		return "#"
	}
}

func formatSymbolLine(sym Symbol) string {
	line := fmt.Sprintf("  %s %s", symbolPrefix(sym.Type), sym.Name)
	if isCallableType(sym.Type) {
		line += "(" + strings.Join(sym.Parameters, ", ") + ")"
		if sym.ReturnType != "" {
			line += " " + sym.ReturnType
		}
	}
	if sym.Complexity > 1 {
		line += fmt.Sprintf(" [c=%d]", sym.Complexity)
	}
	return fmt.Sprintf("%-40s L%d", line, sym.Line)
}

func isCallableType(t graph.NodeType) bool {
	return t == graph.NodeFunction || t == graph.NodeMethod
}
