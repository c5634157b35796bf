package hotspots

import (
	"math"
	"strings"
	"testing"
	"time"

	"hammy/internal/graph"
	"hammy/internal/resolve"
)

func fnNode(file, name string) *graph.Node {
	return &graph.Node{
		ID:       graph.MakeID(file, name),
		Type:     graph.NodeFunction,
		Name:     name,
		Loc:      graph.Location{File: file, Lines: [2]int{1, 5}},
		Language: "python",
	}
}

func call(from *graph.Node, ctx string) graph.Edge {
	return graph.NewEdge(from.ID, graph.UnscopedID(resolve.CalleeName(ctx)), graph.RelCalls).WithContext(ctx)
}

func TestScore(t *testing.T) {
	if got := Score(0, 0); got != 0 {
		t.Errorf("Score(0, 0) = %v, want exactly 0", got)
	}
	if got := Score(0, 500); got != 0 {
		t.Errorf("Score(0, 500) = %v, want 0 (callers are not floored)", got)
	}
	// churn is floored at 1
	if Score(3, 0) != Score(3, 1) {
		t.Errorf("Score(3, 0) = %v, want Score(3, 1) = %v", Score(3, 0), Score(3, 1))
	}

	a, b := Score(2, 0), Score(1, 100)
	if a >= b {
		t.Errorf("A(2 callers, 0 churn) = %v should score below B(1 caller, 100 churn) = %v", a, b)
	}
	if math.Abs(b-math.Log2(101)) > 1e-9 || math.Abs(a-math.Log2(3)) > 1e-9 {
		t.Errorf("A = %v, B = %v", a, b)
	}
}

func TestCompute(t *testing.T) {
	target := fnNode("lib/a.py", "A")
	other := fnNode("lib/b.py", "B")
	c1, c2, c3 := fnNode("app/x.py", "x"), fnNode("app/y.py", "y"), fnNode("app/z.py", "z")

	g := graph.New()
	g.AddFile("lib/a.py", []*graph.Node{target}, nil)
	g.AddFile("lib/b.py", []*graph.Node{other}, nil)
	g.AddFile("app/x.py", []*graph.Node{c1}, []graph.Edge{call(c1, "A(1)"), call(c1, "svc.A(2)")})
	g.AddFile("app/y.py", []*graph.Node{c2}, []graph.Edge{call(c2, "mod.a()")})
	g.AddFile("app/z.py", []*graph.Node{c3}, []graph.Edge{call(c3, "B()")})
	snap := g.Snapshot()
	ix := resolve.ForSnapshot(snap)

	rows := Compute(snap, ix, Options{FileChurn: map[string]int{"lib/b.py": 100}})
	if len(rows) != 5 {
		t.Fatalf("Compute() returned %d rows, want 5", len(rows))
	}
	if rows[0].Name != "B" || rows[1].Name != "A" {
		t.Fatalf("order = %s, %s; want B then A", rows[0].Name, rows[1].Name)
	}
	if rows[1].CallerCount != 2 {
		t.Errorf("A callers = %d, want 2 distinct", rows[1].CallerCount)
	}
	if rows[0].ChurnRate != 100 || rows[1].ChurnRate != 0 {
		t.Errorf("churn = %d, %d", rows[0].ChurnRate, rows[1].ChurnRate)
	}
	for _, r := range rows[2:] {
		if r.Score != 0 {
			t.Errorf("%s score = %v, want 0", r.Name, r.Score)
		}
	}

	if got := Compute(snap, ix, Options{FileFilter: "LIB/", TopN: 1}); len(got) != 1 || got[0].Name != "A" {
		t.Errorf("filtered top 1 = %+v, want A (no churn map: history absent)", got)
	}
	if got := Compute(snap, ix, Options{Language: "go"}); got == nil || len(got) != 0 {
		t.Errorf("no candidates = %v, want empty slice", got)
	}
}

func TestCompute_HistoryChurn(t *testing.T) {
	n := fnNode("a.py", "hot")
	n.History = &graph.History{ChurnRate: 7}
	caller := fnNode("b.py", "c")

	g := graph.New()
	g.AddFile("a.py", []*graph.Node{n}, nil)
	g.AddFile("b.py", []*graph.Node{caller}, []graph.Edge{call(caller, "hot()")})
	snap := g.Snapshot()

	rows := Compute(snap, resolve.ForSnapshot(snap), Options{NodeType: "function", FileFilter: "a.py"})
	if len(rows) != 1 || rows[0].ChurnRate != 7 {
		t.Fatalf("rows = %+v, want churn from history", rows)
	}
	if math.Abs(rows[0].Score-Score(1, 7)) > 1e-12 {
		t.Errorf("score = %v", rows[0].Score)
	}
}

func TestCallerCounts_PrefersCallerLanguage(t *testing.T) {
	goFetch := fnNode("client.go", "Client.Fetch")
	goFetch.Language = "go"
	jsFetch := fnNode("web/api.js", "fetch")
	jsFetch.Language = "javascript"
	goCaller := fnNode("main.go", "run")
	goCaller.Language = "go"
	jsCaller := fnNode("web/app.js", "load")
	jsCaller.Language = "javascript"

	g := graph.New()
	g.AddFile("client.go", []*graph.Node{goFetch}, nil)
	g.AddFile("web/api.js", []*graph.Node{jsFetch}, nil)
	g.AddFile("main.go", []*graph.Node{goCaller}, []graph.Edge{call(goCaller, "c.Fetch(url)")})
	g.AddFile("web/app.js", []*graph.Node{jsCaller}, []graph.Edge{call(jsCaller, "fetch('/api/users')")})
	snap := g.Snapshot()

	counts := CallerCounts(snap, resolve.ForSnapshot(snap))
	if counts[goFetch.ID] != 1 {
		t.Errorf("Client.Fetch callers = %d, want 1 (the go caller only)", counts[goFetch.ID])
	}
	if counts[jsFetch.ID] != 1 {
		t.Errorf("fetch callers = %d, want 1 (the javascript caller only)", counts[jsFetch.ID])
	}
}

func TestClampTopN(t *testing.T) {
	for in, want := range map[int]int{-3: 20, 0: 20, 1: 1, 50: 50, 1000: 200} {
		if got := ClampTopN(in); got != want {
			t.Errorf("ClampTopN(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCalculateTrend(t *testing.T) {
	now := time.Now()
	up := []Sample{
		{At: now.AddDate(0, 0, -30), Score: 0.2},
		{At: now.AddDate(0, 0, -20), Score: 0.6},
		{At: now.AddDate(0, 0, -10), Score: 1.0},
		{At: now, Score: 1.4},
	}
	if tr := CalculateTrend(up); tr.Direction != "increasing" || tr.Velocity <= 0 || tr.DataPoints != 4 {
		t.Errorf("increasing trend = %+v", tr)
	}

	down := []Sample{{At: now.AddDate(0, 0, -10), Score: 3}, {At: now, Score: 0.5}}
	tr := CalculateTrend(down)
	if tr.Direction != "decreasing" {
		t.Errorf("Direction = %s, want decreasing", tr.Direction)
	}
	if tr.Projection30d != 0 {
		t.Errorf("Projection30d = %v, want floored at 0", tr.Projection30d)
	}

	if tr := CalculateTrend(up[:1]); tr.Direction != "stable" || tr.DataPoints != 1 {
		t.Errorf("single sample = %+v", tr)
	}
}

func TestFormatRows(t *testing.T) {
	if got := FormatRows(nil); got != "No hotspots found.\n" {
		t.Errorf("empty = %q", got)
	}
	out := FormatRows([]Row{{Name: "A", File: "a.py", Lines: [2]int{3, 9}, Score: 1.5, CallerCount: 2}})
	if !strings.Contains(out, "a.py:3") || !strings.Contains(out, "1.50") {
		t.Errorf("FormatRows = %q", out)
	}
}
