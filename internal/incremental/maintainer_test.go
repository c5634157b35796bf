package incremental

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hammy/internal/extract"
	"hammy/internal/graph"
	"hammy/internal/slogutil"
	hammytest "hammy/internal/testutil"
	"hammy/internal/vectorstore"
	"hammy/internal/watcher"
)

// lineExtractor treats every line "name" as a function and "a>b" as a
// call from a to b. Files ending in .bad fail to extract.
type lineExtractor struct {
	mu    sync.Mutex
	calls int
}

func (e *lineExtractor) Accepts(rel string) bool {
	return strings.HasSuffix(rel, ".src") || strings.HasSuffix(rel, ".bad")
}

func (e *lineExtractor) ExtractFile(ctx context.Context, abs, rel string) (extract.Result, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if strings.HasSuffix(rel, ".bad") {
		return extract.Result{}, errors.New("syntax error")
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return extract.Result{}, err
	}
	b := hammytest.NewGraphBuilder()
	funcs := map[string]*graph.Node{}
	var res extract.Result
	for i, line := range strings.Split(strings.TrimSpace(string(src)), "\n") {
		line = strings.TrimSpace(line)
		if caller, callee, ok := strings.Cut(line, ">"); ok {
			from := funcs[caller]
			res.Edges = append(res.Edges, graph.NewEdge(from.ID, graph.UnscopedID(callee), graph.RelCalls).
				WithContext(callee+"()").WithConfidence(0.8))
			continue
		}
		n := b.Func(rel, line, "javascript", i+1)
		funcs[line] = n
		res.Nodes = append(res.Nodes, n)
	}
	return res, nil
}

func (e *lineExtractor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func startMaintainer(t *testing.T, root string, opts ...Option) (*Maintainer, *lineExtractor) {
	t.Helper()
	ex := &lineExtractor{}
	m := New(root, nil, ex, slogutil.NewDiscardLogger(), opts...)
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	t.Cleanup(func() {
		m.Stop()
		cancel()
	})
	return m, ex
}

func submit(t *testing.T, m *Maintainer, changes ...ChangedFile) ApplyResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := m.Submit(ctx, changes)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	return res
}

func names(s *graph.Snapshot) []string {
	return hammytest.NodeNames(s.Nodes())
}

func TestMaintainer_AddModifyDelete(t *testing.T) {
	root := t.TempDir()
	hammytest.WriteTree(t, root, map[string]string{
		"a.src": "alpha\nbeta\nalpha>beta\n",
		"b.src": "gamma\n",
	})
	m, ex := startMaintainer(t, root)

	if m.Snapshot().NodeCount() != 0 {
		t.Fatal("new maintainer should publish an empty snapshot")
	}

	res := submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeAdded}, ChangedFile{Path: "b.src", ChangeType: ChangeAdded})
	if len(res.Reindexed) != 2 || res.NodesAdded != 3 || res.EdgesAdded != 1 {
		t.Fatalf("add result = %+v", res)
	}
	first := m.Snapshot()
	if got := names(first); len(got) != 3 {
		t.Fatalf("snapshot nodes = %v", got)
	}

	hammytest.WriteTree(t, root, map[string]string{"a.src": "alpha\ndelta\n"})
	res = submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeModified})
	if res.NodesRemoved != 2 || res.NodesAdded != 2 {
		t.Errorf("modify result = %+v", res)
	}
	second := m.Snapshot()
	if second.Version() <= first.Version() {
		t.Errorf("version did not advance: %d -> %d", first.Version(), second.Version())
	}
	if len(second.EdgesOf(graph.RelCalls)) != 0 {
		t.Error("edges of the old file content should be gone")
	}
	if len(first.EdgesOf(graph.RelCalls)) != 1 || len(names(first)) != 3 {
		t.Error("an earlier snapshot must not change after later batches")
	}

	if err := os.Remove(filepath.Join(root, "b.src")); err != nil {
		t.Fatal(err)
	}
	res = submit(t, m, ChangedFile{Path: "b.src", ChangeType: ChangeDeleted})
	if len(res.Removed) != 1 || res.NodesRemoved != 1 {
		t.Errorf("delete result = %+v", res)
	}
	for _, n := range m.Snapshot().Nodes() {
		if n.Loc.File == "b.src" {
			t.Error("deleted file still owns nodes")
		}
	}

	calls := ex.Calls()
	res = submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeModified})
	if res.Unchanged != 1 || ex.Calls() != calls {
		t.Errorf("unchanged content should not be re-extracted: %+v", res)
	}
}

func TestMaintainer_ErrorsAndIgnoredFiles(t *testing.T) {
	root := t.TempDir()
	hammytest.WriteTree(t, root, map[string]string{
		"x.bad":     "oops\n",
		"notes.txt": "hello\n",
	})
	m, _ := startMaintainer(t, root)

	res := submit(t, m,
		ChangedFile{Path: "x.bad", ChangeType: ChangeAdded},
		ChangedFile{Path: "notes.txt", ChangeType: ChangeAdded},
		ChangedFile{Path: "never-existed.src", ChangeType: ChangeDeleted},
	)
	if len(res.Errors) != 1 || res.Errors[0].Path != "x.bad" {
		t.Errorf("Errors = %+v, want x.bad", res.Errors)
	}
	if res.Ignored != 1 {
		t.Errorf("Ignored = %d, want 1", res.Ignored)
	}
	if len(res.Removed) != 0 {
		t.Errorf("removing an unknown file should be a no-op, got %v", res.Removed)
	}
}

func TestMaintainer_VectorStoreIsBestEffort(t *testing.T) {
	root := t.TempDir()
	hammytest.WriteTree(t, root, map[string]string{"a.src": "alpha\nbeta\n"})

	emb := hammytest.NewHashEmbedder()
	store := vectorstore.NewMemoryStore(emb)
	m, _ := startMaintainer(t, root, WithVectorStore(store))

	submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeAdded})
	if store.Len() != 2 {
		t.Fatalf("store holds %d vectors, want 2", store.Len())
	}

	emb.Fail()
	hammytest.WriteTree(t, root, map[string]string{"a.src": "alpha\nbeta\ngamma\n"})
	res := submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeModified})
	if res.VectorErrors == 0 {
		t.Error("failed upsert should be counted")
	}
	if m.Snapshot().NodeCount() != 3 {
		t.Errorf("graph should advance despite vector errors, has %d nodes", m.Snapshot().NodeCount())
	}
}

func TestMaintainer_MetricsAndCallback(t *testing.T) {
	root := t.TempDir()
	hammytest.WriteTree(t, root, map[string]string{"a.src": "alpha\n"})

	metrics := NewMetrics("hammy_test")
	var applied []ApplyResult
	var mu sync.Mutex
	m, _ := startMaintainer(t, root, WithMetrics(metrics), WithOnApply(func(s *graph.Snapshot, r ApplyResult) {
		mu.Lock()
		applied = append(applied, r)
		mu.Unlock()
	}))

	submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeAdded})

	if got := testutil.ToFloat64(metrics.Batches); got != 1 {
		t.Errorf("batches_applied_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.Nodes); got != 1 {
		t.Errorf("graph_nodes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.FilesApplied.WithLabelValues("reindexed")); got != 1 {
		t.Errorf("files_applied_total{reindexed} = %v, want 1", got)
	}
	mu.Lock()
	if len(applied) != 1 {
		t.Errorf("OnApply called %d times, want 1", len(applied))
	}
	mu.Unlock()
}

func TestMaintainer_ConcurrentReaders(t *testing.T) {
	root := t.TempDir()
	m, _ := startMaintainer(t, root)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					s := m.Snapshot()
					for _, n := range s.Nodes() {
						if _, ok := s.Node(n.ID); !ok {
							t.Error("snapshot is internally inconsistent")
							return
						}
					}
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		hammytest.WriteTree(t, root, map[string]string{"a.src": strings.Repeat("f\n", i+1) + "g" + string(rune('a'+i)) + "\n"})
		submit(t, m, ChangedFile{Path: "a.src", ChangeType: ChangeModified})
	}
	close(stop)
	wg.Wait()
}

func TestMaintainer_StoppedRejectsWork(t *testing.T) {
	m := New(t.TempDir(), nil, &lineExtractor{}, slogutil.NewDiscardLogger())
	m.Start(context.Background())
	m.Stop()

	if err := m.Enqueue([]ChangedFile{{Path: "a.src"}}); !errors.Is(err, ErrStopped) {
		t.Errorf("Enqueue() after Stop error = %v, want ErrStopped", err)
	}
	if _, err := m.Submit(context.Background(), nil); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit() after Stop error = %v, want ErrStopped", err)
	}
}

func TestMaintainer_CancelledContextRejectsWork(t *testing.T) {
	m := New(t.TempDir(), nil, &lineExtractor{}, slogutil.NewDiscardLogger(), WithQueueSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	cancel()
	<-m.done

	errs := make(chan error, 3)
	go func() {
		for i := 0; i < 3; i++ {
			errs <- m.Enqueue([]ChangedFile{{Path: "a.src"}})
		}
	}()
	for i := 0; i < 3; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, ErrStopped) {
				t.Errorf("Enqueue() %d error = %v, want ErrStopped", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Enqueue() blocked after the writer exited")
		}
	}
	if err := m.Flush(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Flush() error = %v, want ErrStopped", err)
	}
}

func TestMaintainer_FlushAppliesQueuedBatches(t *testing.T) {
	root := t.TempDir()
	hammytest.WriteTree(t, root, map[string]string{"a.src": "alpha\n", "b.src": "beta\n"})

	var applied int
	var mu sync.Mutex
	m, _ := startMaintainer(t, root, WithOnApply(func(*graph.Snapshot, ApplyResult) {
		mu.Lock()
		applied++
		mu.Unlock()
	}))

	if err := m.Enqueue([]ChangedFile{{Path: "a.src", ChangeType: ChangeAdded}}); err != nil {
		t.Fatal(err)
	}
	m.HandleEvents([]watcher.Event{{Path: "b.src", Type: watcher.EventCreate}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := names(m.Snapshot()); len(got) != 2 {
		t.Errorf("nodes after Flush = %v, want alpha and beta", got)
	}
	mu.Lock()
	if applied != 2 {
		t.Errorf("OnApply called %d times, want 2 (Flush is not a batch)", applied)
	}
	mu.Unlock()
}

func TestFromEvents(t *testing.T) {
	got := FromEvents([]watcher.Event{
		{Type: watcher.EventCreate, Path: "a"},
		{Type: watcher.EventModify, Path: "b"},
		{Type: watcher.EventDelete, Path: "c"},
		{Type: watcher.EventRename, Path: "d"},
	})
	want := []ChangeType{ChangeAdded, ChangeModified, ChangeDeleted, ChangeDeleted}
	for i, c := range got {
		if c.ChangeType != want[i] {
			t.Errorf("FromEvents()[%d] = %s, want %s", i, c.ChangeType, want[i])
		}
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]ChangedFile{{Path: "b"}, {Path: "a"}, {Path: "b"}, {Path: ""}})
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("dedupe() = %v, want [a b]", got)
	}
}
