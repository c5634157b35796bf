package search

import (
	"context"
	"math"
	"reflect"
	"testing"

	"hammy/internal/config"
	hammyerrors "hammy/internal/errors"
	"hammy/internal/graph"
	"hammy/internal/slogutil"
	"hammy/internal/testutil"
	"hammy/internal/vectorstore"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"getRenew(x) a_b-c", []string{"getrenew", "a_b"}},
		{"  ", []string{}},
		{"User::save -> bool", []string{"user", "save", "bool"}},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDocument(t *testing.T) {
	n := &graph.Node{
		Type:    graph.NodeMethod,
		Name:    "Cart.total",
		Summary: "sums items",
		Meta:    graph.NodeMeta{Parameters: []string{"items"}, ReturnType: "int"},
	}
	if got, want := Document(n), "method Cart.total sums items items int"; got != want {
		t.Errorf("Document() = %q, want %q", got, want)
	}
}

func TestBM25Scores(t *testing.T) {
	idx := NewBM25([][]string{{"get", "renew"}, {"save", "all"}})
	scores := idx.Scores([]string{"renew"})

	want := math.Log(3.0/1.0) * (Delta + 2.5/2.5)
	if math.Abs(scores[0]-want) > 1e-9 {
		t.Errorf("score[0] = %v, want %v", scores[0], want)
	}
	if scores[1] != 0 {
		t.Errorf("score[1] = %v, want 0 for a document without the term", scores[1])
	}
}

func TestBM25_SingleDocumentStaysPositive(t *testing.T) {
	idx := NewBM25([][]string{{"alpha"}})
	if s := idx.Scores([]string{"alpha"})[0]; s <= 0 {
		t.Errorf("single-document score = %v, want > 0", s)
	}
	if idx.IDF("missing") != 0 {
		t.Error("unknown term should have zero idf")
	}
}

func TestRRF(t *testing.T) {
	a := Result{NodeID: "a"}
	b := Result{NodeID: "b"}
	c := Result{NodeID: "c"}

	fused := RRF([][]Result{{a, b}, {b, c}}, 60)
	var ids []string
	for _, r := range fused {
		ids = append(ids, r.NodeID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "a", "c"}) {
		t.Fatalf("fused order = %v, want [b a c]", ids)
	}

	wantB := 1.0/62 + 1.0/61
	if math.Abs(fused[0].Score-wantB) > 1e-12 {
		t.Errorf("b score = %v, want %v", fused[0].Score, wantB)
	}
	if fused[0].Score < 1.0/61 || fused[0].Score < 1.0/62 {
		t.Error("item in both lists must score at least its single-list term")
	}
	for i := 1; i < len(fused); i++ {
		if fused[i].Score > fused[i-1].Score {
			t.Errorf("fused order increases at %d", i)
		}
	}
}

func TestMMR(t *testing.T) {
	cands := []Candidate{
		{Result: Result{NodeID: "a"}, Vector: []float32{1, 0}},
		{Result: Result{NodeID: "a2"}, Vector: []float32{0.99, 0.01}},
		{Result: Result{NodeID: "b"}, Vector: []float32{0.7, 0.7}},
	}
	query := []float32{2, 0}

	ids := func(rs []Result) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.NodeID
		}
		return out
	}

	if got := ids(MMR(query, cands, 2, 1.0)); !reflect.DeepEqual(got, []string{"a", "a2"}) {
		t.Errorf("lambda=1 picks %v, want pure relevance [a a2]", got)
	}
	if got := ids(MMR(query, cands, 2, 0.3)); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("lambda=0.3 picks %v, want diversified [a b]", got)
	}
	if got := MMR(query, cands, 10, DefaultLambda); len(got) != 3 {
		t.Errorf("MMR should stop when candidates run out, got %d", len(got))
	}
	if got := MMR(query, nil, 5, DefaultLambda); got == nil || len(got) != 0 {
		t.Errorf("MMR(no candidates) = %v, want empty slice", got)
	}
	if r := MMR(query, cands, 1, 0.6)[0]; math.Abs(r.Score-1) > 1e-9 {
		t.Errorf("top relevance = %v, want 1 after normalization", r.Score)
	}
}

func newSearcher(store vectorstore.Store) *Searcher {
	return NewSearcher(store, config.DefaultConfig().Search, slogutil.NewDiscardLogger())
}

func TestHybrid_EmptySnapshot(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore(testutil.NewHashEmbedder())

	for _, s := range []*Searcher{newSearcher(nil), newSearcher(store)} {
		got, err := s.Hybrid(ctx, graph.Empty(), "anything", Options{})
		if err != nil {
			t.Fatalf("Hybrid() error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Hybrid(empty) = %v, want []", got)
		}
	}
}

func TestHybrid_LexicalOnly(t *testing.T) {
	snap := testutil.RenewalGraph().Snapshot()
	got, err := newSearcher(nil).Hybrid(context.Background(), snap, "renewal record", Options{Limit: 5})
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "getRenew" {
		t.Fatalf("Hybrid() = %+v, want only getRenew", got)
	}
	if got[0].Score <= 0 {
		t.Errorf("lexical score = %v, want > 0", got[0].Score)
	}

	none, _ := newSearcher(nil).Hybrid(context.Background(), snap, "renewal", Options{Language: "php"})
	if len(none) != 0 {
		t.Errorf("language filter should exclude javascript nodes, got %+v", none)
	}
}

func TestHybrid_FusesDenseRanking(t *testing.T) {
	ctx := context.Background()
	snap := testutil.RenewalGraph().Snapshot()
	store := vectorstore.NewMemoryStore(testutil.NewHashEmbedder())
	if _, err := store.Upsert(ctx, snap.Nodes()); err != nil {
		t.Fatal(err)
	}

	got, err := newSearcher(store).Hybrid(ctx, snap, "subscription", Options{Limit: 3})
	if err != nil {
		t.Fatalf("Hybrid() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Hybrid() returned %d results, want limit 3", len(got))
	}
	if got[0].Name != "processRenewal" {
		t.Errorf("top result = %s, want processRenewal (in both rankings)", got[0].Name)
	}
	if got[0].Score <= 1.0/61 {
		t.Errorf("fused score = %v, want more than a single-list term", got[0].Score)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("fused results increase at %d", i)
		}
	}
}

func TestHybrid_DenseFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	snap := testutil.RenewalGraph().Snapshot()
	emb := testutil.NewHashEmbedder()
	store := vectorstore.NewMemoryStore(emb)
	emb.Fail()

	got, err := newSearcher(store).Hybrid(ctx, snap, "renewal record", Options{})
	if err != nil {
		t.Fatalf("Hybrid() error = %v, want lexical fallback", err)
	}
	if len(got) != 1 || got[0].Name != "getRenew" {
		t.Errorf("fallback results = %+v, want lexical [getRenew]", got)
	}
}

func TestSemantic(t *testing.T) {
	ctx := context.Background()
	if _, err := newSearcher(nil).Semantic(ctx, "x", Options{}); !hammyerrors.HasCode(err, hammyerrors.VectorStoreUnavailable) {
		t.Errorf("Semantic without store error = %v, want VECTOR_STORE_UNAVAILABLE", err)
	}

	snap := testutil.RenewalGraph().Snapshot()
	store := vectorstore.NewMemoryStore(testutil.NewHashEmbedder())
	if _, err := store.Upsert(ctx, snap.Nodes()); err != nil {
		t.Fatal(err)
	}
	got, err := newSearcher(store).Semantic(ctx, "renews subscription card", Options{Limit: 2})
	if err != nil {
		t.Fatalf("Semantic() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Semantic() returned %d, want 2", len(got))
	}
	if got[0].Name != "processRenewal" {
		t.Errorf("first pick = %s, want the most relevant processRenewal", got[0].Name)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{-1: 10, 0: 10, 5: 5, 1000: 100} {
		if got := ClampLimit(in); got != want {
			t.Errorf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSearchSymbols(t *testing.T) {
	snap := testutil.RenewalGraph().Snapshot()

	got := SearchSymbols(snap, "RENEW", Options{}, 0)
	if got.Total != 2 || len(got.Symbols) != 2 {
		t.Fatalf("SearchSymbols(RENEW) = %d/%d, want 2/2", len(got.Symbols), got.Total)
	}

	capped := SearchSymbols(snap, "renew", Options{}, 1)
	if len(capped.Symbols) != 1 || capped.Total != 2 {
		t.Errorf("capped = %d/%d, want 1/2", len(capped.Symbols), capped.Total)
	}

	bySummary := SearchSymbols(snap, "charges the card", Options{}, 0)
	if len(bySummary.Symbols) != 1 || bySummary.Symbols[0].Name != "processRenewal" {
		t.Errorf("summary search = %v", testutil.NodeNames(bySummary.Symbols))
	}
}

func TestListFiles(t *testing.T) {
	snap := testutil.RenewalGraph().Snapshot()
	files := ListFiles(snap, "")
	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	want := []string{"src/bulk.js", "src/http.js", "src/renewal.js", "src/store.js"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("ListFiles paths = %v, want %v", paths, want)
	}
	if files[3].Nodes != 2 || !reflect.DeepEqual(files[3].Languages, []string{"javascript"}) {
		t.Errorf("store.js entry = %+v", files[3])
	}
	if len(ListFiles(snap, "python")) != 0 {
		t.Error("language filter should exclude every file")
	}
}
