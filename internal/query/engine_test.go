package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"hammy/internal/config"
	hammyerrors "hammy/internal/errors"
	"hammy/internal/extract"
	"hammy/internal/graph"
	"hammy/internal/hotspots"
	"hammy/internal/impact"
	"hammy/internal/index"
	"hammy/internal/search"
	"hammy/internal/slogutil"
	hammytest "hammy/internal/testutil"
	"hammy/internal/vcs"
	"hammy/internal/vectorstore"
)

func newTestEngine(t *testing.T, snap *graph.Snapshot, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(t.TempDir(), Static(snap), config.DefaultConfig(), slogutil.NewDiscardLogger(), opts...)
}

// swapSource publishes snapshots like the maintainer does.
type swapSource struct {
	cur atomic.Pointer[graph.Snapshot]
}

func (s *swapSource) Snapshot() *graph.Snapshot { return s.cur.Load() }

type fakeVCS struct {
	churn    map[string]int
	churnErr error
	commits  []vcs.CommitInfo
	blame    []vcs.BlameLine
	window   int
	logPath  string
	logLimit int
}

func (f *fakeVCS) Log(_ context.Context, path string, limit int) ([]vcs.CommitInfo, error) {
	f.logPath, f.logLimit = path, limit
	return f.commits, nil
}

func (f *fakeVCS) Blame(_ context.Context, path string) ([]vcs.BlameLine, error) {
	return f.blame, nil
}

func (f *fakeVCS) Churn(_ context.Context, windowDays int) (map[string]int, error) {
	f.window = windowDays
	return f.churn, f.churnErr
}

type fakeHistory struct {
	samples map[string][]hotspots.Sample
	err     error
}

func (f fakeHistory) HotspotSamples(_ context.Context, ids []string) (map[string][]hotspots.Sample, error) {
	return f.samples, f.err
}

func TestStatus(t *testing.T) {
	e := newTestEngine(t, hammytest.RenewalGraph().Snapshot())

	st := e.Status()
	if st.Stats.Nodes != 5 || st.Stats.Files != 4 {
		t.Errorf("stats = %+v", st.Stats)
	}
	if st.Stats.ByLanguage["javascript"] != 5 {
		t.Errorf("by language = %v", st.Stats.ByLanguage)
	}
	if st.Index != nil || st.Freshness != nil {
		t.Error("freshness needs index metadata")
	}
	if st.VectorStore || st.VCS {
		t.Error("no optional services were configured")
	}

	meta := &index.IndexMeta{CreatedAt: time.Now(), FileCount: 4}
	st = newTestEngine(t, hammytest.RenewalGraph().Snapshot(), WithIndexMeta(meta), WithVCS(&fakeVCS{})).Status()
	if st.Freshness == nil || st.Freshness.Fresh {
		t.Errorf("freshness = %+v, want stale: indexed files are missing on disk", st.Freshness)
	}
	if !st.VCS {
		t.Error("VCS should be reported")
	}
}

func TestAnalyzerFollowsSnapshots(t *testing.T) {
	src := &swapSource{}
	b := hammytest.RenewalGraph()
	src.cur.Store(b.Snapshot())
	e := NewEngine(t.TempDir(), src, nil, slogutil.NewDiscardLogger())

	_, first := e.analysis()
	_, again := e.analysis()
	if first != again {
		t.Error("analyzer should be reused for the same snapshot")
	}

	res, err := e.Impact("getRenew", 1, impact.Callers)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Callers) != 1 {
		t.Fatalf("callers = %+v", res.Callers)
	}

	cron := b.Func("src/cron.js", "nightly", "javascript", 1)
	b.Call(cron, "getRenew", "getRenew(all)")
	src.cur.Store(b.Snapshot())

	res, err = e.Impact("getRenew", 1, impact.Callers)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Callers) != 2 {
		t.Errorf("callers after swap = %+v, want 2", res.Callers)
	}
}

func TestUsagesAndImpact_InvalidName(t *testing.T) {
	e := newTestEngine(t, hammytest.RenewalGraph().Snapshot())
	if _, err := e.Usages("  ", ""); !hammyerrors.HasCode(err, hammyerrors.InvalidArgument) {
		t.Errorf("Usages() error = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := e.Impact("", 2, impact.Callers); !hammyerrors.HasCode(err, hammyerrors.InvalidArgument) {
		t.Errorf("Impact() error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestUsages_WordBoundary(t *testing.T) {
	e := newTestEngine(t, hammytest.RenewalGraph().Snapshot())
	res, err := e.Usages("save", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Usages) != 0 {
		t.Errorf("save should not match saveAll(x): %+v", res.Usages)
	}
	res, err = e.Usages("getRenew", "bulk")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Usages) != 0 {
		t.Errorf("file filter should drop renewal.js: %+v", res.Usages)
	}
}

func TestDiff(t *testing.T) {
	e := newTestEngine(t, hammytest.RenewalGraph().Snapshot())
	report := e.Diff(`diff --git a/src/store.js b/src/store.js
index 1111111..2222222 100644
--- a/src/store.js
+++ b/src/store.js
@@ -21,2 +21,3 @@ function getRenew(id) {
   const row = query(id);
+  log(row);
   return row;
`, 0)
	if len(report.ChangedFiles) != 1 {
		t.Fatalf("changed files = %+v", report.ChangedFiles)
	}
	var found bool
	for _, imp := range report.Impact {
		if imp.Symbol == "getRenew" {
			found = true
			if imp.CallerCount < 1 || imp.Risk != impact.ClassifyRisk(imp.CallerCount) {
				t.Errorf("getRenew impact = %+v", imp)
			}
		}
	}
	if !found {
		t.Errorf("getRenew missing from impact: %+v", report)
	}

	if empty := e.Diff("", 0); !empty.Empty() {
		t.Errorf("empty diff = %+v", empty)
	}
}

func TestBridges(t *testing.T) {
	b := hammytest.NewGraphBuilder()
	fetch := b.Func("web/app.js", "loadUsers", "javascript", 1)
	consumer := b.Node("web/app.js", graph.NodeEndpoint, "/api/users/${id}", "javascript", 2)
	provider := b.Node("api/routes.php", graph.NodeEndpoint, "/api/users/{id}", "php", 5)
	exact := b.Node("api/routes.php", graph.NodeEndpoint, "/api/users/42", "php", 9)
	g := b.Graph()

	mk := func(src, dst *graph.Node, conf float64) graph.Edge {
		e := graph.NewEdge(src.ID, dst.ID, graph.RelNetworksTo).WithConfidence(conf).WithContext(src.Name + " -> " + dst.Name)
		e.Metadata.IsBridge = true
		return e
	}
	g.SetBridges([]graph.Edge{
		mk(consumer, exact, 0.8),
		mk(consumer, provider, 1.0),
		mk(fetch, consumer, 1.0), // a call site, not a resolved bridge
	})

	e := newTestEngine(t, g.Snapshot())
	got := e.Bridges().Bridges
	if len(got) != 2 {
		t.Fatalf("bridges = %+v, want 2", got)
	}
	if got[0].Provider.ID != provider.ID || got[0].Confidence != 1.0 {
		t.Errorf("first bridge = %+v, want the exact match", got[0])
	}
	if got[1].Consumer.ID != consumer.ID {
		t.Errorf("second bridge consumer = %s", got[1].Consumer.Name)
	}
}

func TestHotspots(t *testing.T) {
	snap := hammytest.RenewalGraph().Snapshot()
	ctx := context.Background()

	t.Run("vcs churn", func(t *testing.T) {
		p := &fakeVCS{churn: map[string]int{"src/store.js": 10}}
		e := newTestEngine(t, snap, WithVCS(p))
		resp, err := e.Hotspots(ctx, HotspotsRequest{Options: hotspots.Options{TopN: 3}})
		if err != nil {
			t.Fatal(err)
		}
		if resp.ChurnSource != "vcs" || p.window != config.DefaultConfig().VCS.ChurnWindowDays {
			t.Errorf("churn source = %s, window = %d", resp.ChurnSource, p.window)
		}
		if len(resp.Hotspots) != 3 || resp.Hotspots[0].Name != "getRenew" {
			t.Errorf("top hotspot = %+v", resp.Hotspots)
		}
		if resp.Hotspots[0].ChurnRate != 10 {
			t.Errorf("churn = %d, want 10", resp.Hotspots[0].ChurnRate)
		}
	})

	t.Run("vcs failure falls back", func(t *testing.T) {
		e := newTestEngine(t, snap, WithVCS(&fakeVCS{churnErr: errors.New("no HEAD")}))
		resp, err := e.Hotspots(ctx, HotspotsRequest{})
		if err != nil {
			t.Fatal(err)
		}
		if resp.ChurnSource != "history" {
			t.Errorf("churn source = %s, want history", resp.ChurnSource)
		}
	})

	t.Run("supplied churn", func(t *testing.T) {
		p := &fakeVCS{churn: map[string]int{"src/store.js": 99}}
		e := newTestEngine(t, snap, WithVCS(p))
		resp, err := e.Hotspots(ctx, HotspotsRequest{Options: hotspots.Options{FileChurn: map[string]int{}}})
		if err != nil {
			t.Fatal(err)
		}
		if resp.ChurnSource != "supplied" || p.window != 0 {
			t.Errorf("supplied churn should skip the provider: %s", resp.ChurnSource)
		}
	})

	t.Run("trend", func(t *testing.T) {
		id := graph.MakeID("src/store.js", "getRenew")
		now := time.Now()
		hist := fakeHistory{samples: map[string][]hotspots.Sample{
			id: {
				{NodeID: id, At: now.AddDate(0, 0, -10), Score: 0.1},
				{NodeID: id, At: now.AddDate(0, 0, -5), Score: 0.5},
			},
		}}
		p := &fakeVCS{churn: map[string]int{"src/store.js": 10}}
		e := newTestEngine(t, snap, WithVCS(p), WithHotspotHistory(hist))
		resp, err := e.Hotspots(ctx, HotspotsRequest{Trend: true})
		if err != nil {
			t.Fatal(err)
		}
		top := resp.Hotspots[0]
		if top.Trend == nil || top.Trend.Direction != "increasing" || top.Trend.DataPoints != 3 {
			t.Errorf("trend = %+v", top.Trend)
		}
		for _, r := range resp.Hotspots[1:] {
			if r.Trend == nil || r.Trend.DataPoints != 1 {
				t.Errorf("%s trend = %+v, want a single current sample", r.Name, r.Trend)
			}
		}
	})

	t.Run("trend history error", func(t *testing.T) {
		e := newTestEngine(t, snap, WithHotspotHistory(fakeHistory{err: errors.New("locked")}))
		resp, err := e.Hotspots(ctx, HotspotsRequest{Trend: true})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Hotspots[0].Trend != nil {
			t.Error("trends should be dropped when history fails")
		}
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	snap := hammytest.RenewalGraph().Snapshot()

	lexical := newTestEngine(t, snap)
	resp, err := lexical.Search(ctx, "renewal record", SearchHybrid, search.Options{Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Dense || len(resp.Results) == 0 || resp.Results[0].Name != "getRenew" {
		t.Errorf("lexical search = %+v", resp)
	}

	if _, err := lexical.Search(ctx, "renewal", SearchSemantic, search.Options{}); !hammyerrors.HasCode(err, hammyerrors.VectorStoreUnavailable) {
		t.Errorf("semantic without a store: error = %v", err)
	}
	if _, err := lexical.Search(ctx, "renewal", SearchMode("fuzzy"), search.Options{}); !hammyerrors.HasCode(err, hammyerrors.InvalidArgument) {
		t.Errorf("unknown mode: error = %v", err)
	}
	if _, err := lexical.Search(ctx, " ", SearchHybrid, search.Options{}); !hammyerrors.HasCode(err, hammyerrors.InvalidArgument) {
		t.Errorf("empty query: error = %v", err)
	}

	store := vectorstore.NewMemoryStore(hammytest.NewHashEmbedder())
	if _, err := store.Upsert(ctx, snap.Nodes()); err != nil {
		t.Fatal(err)
	}
	dense := newTestEngine(t, snap, WithVectorStore(store))
	resp, err = dense.Search(ctx, "renewal", "", search.Options{Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Mode != SearchHybrid || !resp.Dense || len(resp.Results) == 0 {
		t.Errorf("hybrid search = %+v", resp)
	}
	resp, err = dense.Search(ctx, "renewal", SearchSemantic, search.Options{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("semantic results = %d, want 2", len(resp.Results))
	}
}

func TestSearch_EmptySnapshot(t *testing.T) {
	e := newTestEngine(t, nil)
	resp, err := e.Search(context.Background(), "anything", SearchHybrid, search.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results = %#v, want an empty slice", resp.Results)
	}
}

var _ Extractor = (*fakeExtractor)(nil)

type fakeExtractor struct {
	abs, rel string
	result   extract.Result
	err      error
}

func (f *fakeExtractor) ExtractFile(_ context.Context, abs, rel string) (extract.Result, error) {
	f.abs, f.rel = abs, rel
	return f.result, f.err
}
