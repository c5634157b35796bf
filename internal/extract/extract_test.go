package extract

import (
	"testing"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/grammar"
	"hammy/internal/graph"
)

var (
	L = grammar.Leaf
	N = grammar.NewNode
)

// def checkout(cart): charge(cart)
func pythonFunctionTree() *grammar.Tree {
	call := N("call", "charge(cart)", 2, 2,
		L("identifier", "charge", 2),
		N("argument_list", "(cart)", 2, 2, L("identifier", "cart", 2)),
	)
	fn := N("function_definition", "def checkout(cart):\n    charge(cart)", 1, 2,
		L("def", "def", 1),
		L("identifier", "checkout", 1),
		N("parameters", "(cart)", 1, 1, L("(", "(", 1), L("identifier", "cart", 1), L(")", ")", 1)),
		L(":", ":", 1),
		N("block", "charge(cart)", 2, 2, N("expression_statement", "charge(cart)", 2, 2, call)),
	)
	return &grammar.Tree{Root: N("module", "", 1, 2, fn), Language: grammar.Python}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if len(r.Languages()) != len(grammar.Languages) {
		t.Errorf("Languages() = %v", r.Languages())
	}

	only, err := NewRegistry(grammar.Go)
	if err != nil {
		t.Fatal(err)
	}
	if only.Supports(grammar.Python) {
		t.Error("python should not be enabled")
	}
	if _, err := only.Extract(pythonFunctionTree(), "shop.py"); !hammyerrors.HasCode(err, hammyerrors.UnsupportedLanguage) {
		t.Errorf("Extract on disabled language: err = %v", err)
	}

	if _, err := NewRegistry("cobol"); err == nil {
		t.Error("NewRegistry(cobol) should fail")
	}
}

func TestRegistry_HandBuiltTree(t *testing.T) {
	r, _ := NewRegistry(grammar.Python)
	res, err := r.Extract(pythonFunctionTree(), "shop.py")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(res.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(res.Nodes))
	}
	fn := res.Nodes[0]
	if fn.ID != graph.MakeID("shop.py", "checkout") || fn.Type != graph.NodeFunction {
		t.Errorf("node = %+v", fn)
	}
	if len(fn.Meta.Parameters) != 1 || fn.Meta.Parameters[0] != "cart" {
		t.Errorf("params = %v", fn.Meta.Parameters)
	}
	if fn.Meta.ComplexityScore == nil || *fn.Meta.ComplexityScore != 1 {
		t.Errorf("complexity = %v", fn.Meta.ComplexityScore)
	}
	if len(res.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(res.Edges))
	}
	e := res.Edges[0]
	if e.Target != graph.UnscopedID("charge") || e.Metadata.Confidence != 0.8 || e.Metadata.Context != "charge(cart)" {
		t.Errorf("edge = %+v", e)
	}
}

func TestRegistry_RecoversPanic(t *testing.T) {
	r := &Registry{extractors: map[grammar.Language]Extractor{
		grammar.Go: func(*grammar.Tree, string) Result { panic("boom") },
	}}
	_, err := r.Extract(&grammar.Tree{Root: N("source_file", "", 1, 1), Language: grammar.Go}, "x.go")
	if !hammyerrors.HasCode(err, hammyerrors.ParseFailed) {
		t.Errorf("err = %v, want PARSE_FAILED", err)
	}
}

func TestResolveCallee(t *testing.T) {
	noise := callNoise[grammar.JavaScript]
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", false},
		{"console.log", "", false},
		{"JSON.stringify", "", false},
		{"new Foo", "", false},
		{"this.", "", false},
		{"this.repo.save", "this.repo.save", true},
		{"print", "print", true}, // python noise only
	}
	for _, tt := range tests {
		got, ok := resolveCallee(tt.in, noise)
		if got != tt.want || ok != tt.ok {
			t.Errorf("resolveCallee(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}

func TestParamNames(t *testing.T) {
	goParams := N("parameter_list", "(a, b int, opts ...Option)", 1, 1,
		N("parameter_declaration", "a, b int", 1, 1, L("identifier", "a", 1), L(",", ",", 1), L("identifier", "b", 1), L("type_identifier", "int", 1)),
		N("variadic_parameter_declaration", "opts ...Option", 1, 1, L("identifier", "opts", 1), L("...", "...", 1), L("type_identifier", "Option", 1)),
	)
	got := paramNames(goParams)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "opts" {
		t.Errorf("go params = %v", got)
	}

	phpParams := N("formal_parameters", "($id, int $n)", 1, 1,
		N("simple_parameter", "$id", 1, 1, L("variable_name", "$id", 1)),
		N("simple_parameter", "int $n", 1, 1, L("primitive_type", "int", 1), L("variable_name", "$n", 1)),
	)
	got = paramNames(phpParams)
	if len(got) != 2 || got[0] != "$id" || got[1] != "$n" {
		t.Errorf("php params = %v", got)
	}
}
