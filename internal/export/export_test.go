package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"hammy/internal/graph"
	"hammy/internal/slogutil"
	hammytest "hammy/internal/testutil"
)

type fixture struct {
	snap     *graph.Snapshot
	getRenew *graph.Node
	consumer *graph.Node
	provider *graph.Node
}

func newFixture() fixture {
	b := hammytest.NewGraphBuilder()
	handle := b.Func("api/http.js", "handleRequest", "javascript", 3)
	consumer := b.Node("api/http.js", graph.NodeEndpoint, "/api/users", "javascript", 8)
	provider := b.Node("server/routes.php", graph.NodeEndpoint, "/api/users", "php", 2)
	b.Node("store/cart.py", graph.NodeClass, "Cart", "python", 1)
	b.Node("store/cart.py", graph.NodeMethod, "Cart.checkout", "python", 5)
	getRenew := b.Func("store/store.js", "getRenew", "javascript", 20)
	five := 5
	getRenew.Meta.ComplexityScore = &five
	getRenew.Meta.Parameters = []string{"id"}
	b.Call(handle, "getRenew", "store.getRenew(id)")

	g := b.Graph()
	bridge := graph.NewEdge(consumer.ID, provider.ID, graph.RelNetworksTo).WithConfidence(1.0)
	bridge.Metadata.IsBridge = true
	g.SetBridges([]graph.Edge{bridge})
	return fixture{snap: g.Snapshot(), getRenew: getRenew, consumer: consumer, provider: provider}
}

func newTestExporter() *Exporter {
	e := NewExporter(slogutil.NewDiscardLogger())
	e.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return e
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"json", FormatJSON, true},
		{"json.zst", FormatJSONZstd, true},
		{"zstd", FormatJSONZstd, true},
		{"scip", FormatSCIP, true},
		{"text", FormatText, true},
		{"xml", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFormat(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	fx := newFixture()
	e := newTestExporter()

	doc := e.Build(fx.snap, Options{Project: "shop"})
	if doc.Metadata.Generated != "2026-01-02T03:04:05Z" {
		t.Errorf("Generated = %s", doc.Metadata.Generated)
	}
	if doc.Metadata.SymbolCount != 6 || doc.Metadata.FileCount != 4 || doc.Metadata.BridgeCount != 1 {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	var dirs []string
	for _, d := range doc.Directories {
		dirs = append(dirs, d.Path)
	}
	if got := strings.Join(dirs, ","); got != "api,server,store" {
		t.Errorf("directories = %s", got)
	}
	if doc.Metadata.EdgeCount != 0 {
		t.Error("edges should be omitted unless requested")
	}

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"types", Options{Types: []graph.NodeType{graph.NodeFunction}}, 2},
		{"max symbols", Options{MaxSymbols: 2}, 2},
		{"min complexity", Options{MinComplexity: 3}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Build(fx.snap, tt.opts).Metadata.SymbolCount; got != tt.want {
				t.Errorf("SymbolCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	fx := newFixture()
	e := newTestExporter()

	for _, format := range []Format{FormatJSON, FormatJSONZstd} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := e.Write(&buf, fx.snap, format, Options{Project: "shop"}); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			compressed := bytes.HasPrefix(buf.Bytes(), zstdMagic)
			if compressed != (format == FormatJSONZstd) {
				t.Errorf("compressed = %v for %s", compressed, format)
			}

			doc, err := ReadJSON(&buf)
			if err != nil {
				t.Fatalf("ReadJSON() error = %v", err)
			}
			got := doc.Graph().Snapshot()
			if got.NodeCount() != fx.snap.NodeCount() || got.EdgeCount() != fx.snap.EdgeCount() {
				t.Errorf("round trip = %d nodes %d edges, want %d/%d",
					got.NodeCount(), got.EdgeCount(), fx.snap.NodeCount(), fx.snap.EdgeCount())
			}
			n, ok := got.Node(fx.getRenew.ID)
			if !ok || n.Meta.ComplexityScore == nil || *n.Meta.ComplexityScore != 5 {
				t.Errorf("getRenew lost its complexity: %+v", n)
			}
		})
	}
}

func TestReadJSON_Invalid(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Error("expected a decode error")
	}
}

func TestSCIP(t *testing.T) {
	fx := newFixture()
	e := newTestExporter()

	var buf bytes.Buffer
	if err := e.Write(&buf, fx.snap, FormatSCIP, Options{Project: "shop"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	index, err := ReadSCIP(&buf)
	if err != nil {
		t.Fatalf("ReadSCIP() error = %v", err)
	}
	if index.Metadata.ToolInfo.Name != "hammy" {
		t.Errorf("tool = %s", index.Metadata.ToolInfo.Name)
	}
	if len(index.Documents) != 4 {
		t.Fatalf("documents = %d, want 4", len(index.Documents))
	}

	symbols := map[string]string{}
	var bridged bool
	for _, doc := range index.Documents {
		for _, info := range doc.Symbols {
			symbols[info.DisplayName+"@"+doc.RelativePath] = info.Symbol
			if len(info.Relationships) > 0 && info.Relationships[0].IsReference {
				bridged = true
			}
			if info.DisplayName == "Cart.checkout" && info.EnclosingSymbol != "hammy . shop . store/`cart.py`/Cart#" {
				t.Errorf("EnclosingSymbol = %s", info.EnclosingSymbol)
			}
		}
		for _, occ := range doc.Occurrences {
			if occ.SymbolRoles&1 == 0 {
				t.Errorf("occurrence %s is not a definition", occ.Symbol)
			}
		}
	}

	want := map[string]string{
		"getRenew@store/store.js":      "hammy . shop . store/`store.js`/getRenew().",
		"Cart@store/cart.py":           "hammy . shop . store/`cart.py`/Cart#",
		"Cart.checkout@store/cart.py":  "hammy . shop . store/`cart.py`/Cart#checkout().",
		"/api/users@server/routes.php": "hammy . shop . server/`routes.php`/`/api/users`:",
	}
	for k, v := range want {
		if symbols[k] != v {
			t.Errorf("symbol %s = %q, want %q", k, symbols[k], v)
		}
	}
	if !bridged {
		t.Error("bridge should become a reference relationship")
	}
}

func TestOrganize(t *testing.T) {
	fx := newFixture()
	e := newTestExporter()

	org := Organize(e.Build(fx.snap, Options{}), fx.snap)
	if len(org.DirectoryMap) != 3 || org.DirectoryMap[0].Path != "store" {
		t.Errorf("directory map = %+v", org.DirectoryMap)
	}
	if top := org.DirectoryMap[0].TopSymbols; len(top) == 0 || top[0] != "getRenew" {
		t.Errorf("top symbols = %v, want getRenew first", top)
	}

	got := map[string]Connection{}
	for _, c := range org.Connections {
		got[c.From+">"+c.To+":"+c.Kind] = c
	}
	if c, ok := got["api>store:calls"]; !ok || c.TopCaller != "handleRequest" || c.TopCallee != "getRenew" {
		t.Errorf("calls connection = %+v", c)
	}
	if _, ok := got["api>server:network"]; !ok {
		t.Errorf("network connection missing: %+v", org.Connections)
	}

	text := FormatOrganizedText(org)
	for _, want := range []string{"# Codebase: project", "## Directory Map", "api -> store (calls x1", "# getRenew(id)", "[c=5]", "@ /api/users"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := newTestExporter().Write(&buf, graph.Empty(), Format("xml"), Options{}); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
