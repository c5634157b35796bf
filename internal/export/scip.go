package export

import (
	"fmt"
	"io"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"hammy/internal/graph"
	"hammy/internal/resolve"
	"hammy/internal/version"
)

// BuildSCIP converts a snapshot into a SCIP index. Every node becomes a
// definition occurrence on its first line. Resolved bridge edges become
// reference relationships from the consumer endpoint to the provider.
func (e *Exporter) BuildSCIP(s *graph.Snapshot, opts Options) *scippb.Index {
	pkg := scipPackage(opts.Project)
	symbols := make(map[string]string, s.NodeCount())
	for _, n := range s.Nodes() {
		symbols[n.ID] = scipSymbol(pkg, n)
	}

	related := make(map[string][]*scippb.Relationship)
	for _, b := range s.Bridges() {
		if _, ok := symbols[b.Source]; !ok {
			continue
		}
		dst, ok := symbols[b.Target]
		if !ok {
			continue
		}
		related[b.Source] = append(related[b.Source], &scippb.Relationship{Symbol: dst, IsReference: true})
	}

	index := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:    "hammy",
				Version: version.Version,
			},
			ProjectRoot:          "file:///",
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	for _, f := range s.Files() {
		nodes := s.NodesInFile(f)
		if len(nodes) == 0 {
			continue
		}
		doc := &scippb.Document{
			RelativePath: f,
			Language:     scipLanguage(nodes[0].Language),
		}
		for _, n := range nodes {
			sym := symbols[n.ID]
			start := int32(max(n.Loc.Lines[0]-1, 0))
			end := int32(max(n.Loc.Lines[1]-1, int(start)))
			doc.Occurrences = append(doc.Occurrences, &scippb.Occurrence{
				Range:          []int32{start, 0, int32(len(n.Name))},
				Symbol:         sym,
				SymbolRoles:    int32(scippb.SymbolRole_Definition),
				EnclosingRange: []int32{start, 0, end, 0},
			})
			info := &scippb.SymbolInformation{
				Symbol:        sym,
				DisplayName:   n.Name,
				Kind:          scipKind(n.Type),
				Documentation: scipDocs(n),
				Relationships: related[n.ID],
			}
			if owner := ownerName(n); owner != "" {
				info.EnclosingSymbol = pkg + fileDescriptor(n.Loc.File) + escape(owner) + "#"
			}
			doc.Symbols = append(doc.Symbols, info)
		}
		index.Documents = append(index.Documents, doc)
	}
	return index
}

// WriteSCIP writes the protobuf-encoded SCIP index of s.
func (e *Exporter) WriteSCIP(w io.Writer, s *graph.Snapshot, opts Options) error {
	data, err := proto.Marshal(e.BuildSCIP(s, opts))
	if err != nil {
		return fmt.Errorf("marshaling scip index: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ReadSCIP decodes a SCIP index.
func ReadSCIP(r io.Reader) (*scippb.Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parsing scip index: %w", err)
	}
	return &index, nil
}

// scipPackage is "<scheme> <manager> <name> <version> ".
func scipPackage(project string) string {
	name := strings.ReplaceAll(strings.TrimSpace(project), " ", "-")
	if name == "" {
		name = "."
	}
	return "hammy . " + name + " . "
}

func fileDescriptor(file string) string {
	var sb strings.Builder
	for _, part := range strings.Split(file, "/") {
		sb.WriteString(escape(part))
		sb.WriteByte('/')
	}
	return sb.String()
}

// scipSymbol builds a global symbol: the file path as namespaces followed
// by a descriptor suffixed by kind.
func scipSymbol(pkg string, n *graph.Node) string {
	prefix := pkg + fileDescriptor(n.Loc.File)
	name := n.Name
	if owner := ownerName(n); owner != "" {
		prefix += escape(owner) + "#"
		name = resolve.BareName(n.Name)
	}
	switch n.Type {
	case graph.NodeFunction, graph.NodeMethod:
		return prefix + escape(name) + "()."
	case graph.NodeClass, graph.NodeInterface:
		return prefix + escape(name) + "#"
	case graph.NodeEndpoint:
		return prefix + escape(name) + ":"
	default:
		return prefix + escape(name) + "."
	}
}

// ownerName returns the class part of a qualified method name.
func ownerName(n *graph.Node) string {
	if n.Type != graph.NodeMethod {
		return ""
	}
	bare := resolve.BareName(n.Name)
	owner := strings.TrimRight(strings.TrimSuffix(n.Name, bare), ".:\\")
	return resolve.BareName(owner)
}

func escape(s string) string {
	if s == "" {
		return "``"
	}
	for _, r := range s {
		if !isSimpleIdentifier(r) {
			return "`" + strings.ReplaceAll(s, "`", "``") + "`"
		}
	}
	return s
}

func isSimpleIdentifier(r rune) bool {
	return r == '_' || r == '+' || r == '-' || r == '$' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func scipKind(t graph.NodeType) scippb.SymbolInformation_Kind {
	switch t {
	case graph.NodeFunction:
		return scippb.SymbolInformation_Function
	case graph.NodeMethod:
		return scippb.SymbolInformation_Method
	case graph.NodeClass:
		return scippb.SymbolInformation_Class
	case graph.NodeInterface:
		return scippb.SymbolInformation_Interface
	case graph.NodeVariable:
		return scippb.SymbolInformation_Variable
	default:
		return scippb.SymbolInformation_UnspecifiedKind
	}
}

func scipLanguage(lang string) string {
	switch lang {
	case "javascript":
		return "JavaScript"
	case "typescript":
		return "TypeScript"
	case "python":
		return "Python"
	case "go":
		return "Go"
	case "php":
		return "PHP"
	}
	return lang
}

func scipDocs(n *graph.Node) []string {
	sig := string(n.Type) + " " + n.Name
	if isCallable(n) {
		sig += "(" + strings.Join(n.Meta.Parameters, ", ") + ")"
		if n.Meta.ReturnType != "" {
			sig += " " + n.Meta.ReturnType
		}
	}
	docs := []string{"```" + n.Language + "\n" + sig + "\n```"}
	if n.Summary != "" {
		docs = append(docs, n.Summary)
	}
	return docs
}
