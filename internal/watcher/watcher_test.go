package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"hammy/internal/config"
	"hammy/internal/ignore"
	"hammy/internal/slogutil"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertOp(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want EventType
	}{
		{fsnotify.Create, EventCreate},
		{fsnotify.Write, EventModify},
		{fsnotify.Remove, EventDelete},
		{fsnotify.Rename, EventRename},
		{fsnotify.Create | fsnotify.Write, EventCreate},
	}
	for _, tt := range tests {
		if got := convertOp(tt.op); got != tt.want {
			t.Errorf("convertOp(%v) = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestBatchDebouncerCoalescesPaths(t *testing.T) {
	var received []Event
	var mu sync.Mutex
	b := NewBatchDebouncer(50*time.Millisecond, func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "a.go"})
	b.Add(Event{Type: EventModify, Path: "b.go"})
	b.Add(Event{Type: EventModify, Path: "a.go"})
	b.Add(Event{Type: EventDelete, Path: "b.go"})

	if b.EventCount() != 2 {
		t.Errorf("EventCount() = %d, want 2 distinct paths", b.EventCount())
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("received %d events, want 2", len(received))
	}
	if received[0].Path != "a.go" || received[0].Type != EventCreate {
		t.Errorf("first = %+v, want a.go create", received[0])
	}
	if received[1].Path != "b.go" || received[1].Type != EventDelete {
		t.Errorf("second = %+v, want b.go delete", received[1])
	}
}

func TestBatchDebouncerCancel(t *testing.T) {
	var called bool
	var mu sync.Mutex
	b := NewBatchDebouncer(50*time.Millisecond, func(events []Event) {
		mu.Lock()
		called = true
		mu.Unlock()
	})
	b.Add(Event{Type: EventCreate, Path: "file.go"})
	b.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if called {
		t.Error("emit should not be called after cancel")
	}
	mu.Unlock()
	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d, want 0 after cancel", b.EventCount())
	}
}

func TestBatchDebouncerFlush(t *testing.T) {
	var received []Event
	b := NewBatchDebouncer(time.Hour, func(events []Event) { received = events })

	b.Flush()
	if received != nil {
		t.Error("emit should not be called with no events")
	}

	b.Add(Event{Type: EventCreate, Path: "file.go"})
	b.Flush()
	if len(received) != 1 {
		t.Errorf("received %d events after flush, want 1", len(received))
	}
	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d, want 0 after flush", b.EventCount())
	}
}

func TestWatcherDeliversBatches(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "node_modules"), 0o755); err != nil {
		t.Fatal(err)
	}
	ign, err := ignore.New(root, config.IgnoreConfig{})
	if err != nil {
		t.Fatal(err)
	}

	batches := make(chan []Event, 4)
	w, err := New(root, ign, 50*time.Millisecond, slogutil.NewDiscardLogger(), func(events []Event) {
		batches <- events
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if got := w.DirCount(); got != 2 {
		t.Errorf("DirCount() = %d, want 2 (root and src)", got)
	}

	if err := os.WriteFile(filepath.Join(root, "node_modules", "x.js"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "app.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case events := <-batches:
		if len(events) != 1 || events[0].Path != "src/app.py" {
			t.Errorf("batch = %+v, want one event for src/app.py", events)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change batch")
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	w, err := New(t.TempDir(), nil, 0, slogutil.NewDiscardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Stop()
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	w.Stop()
	w.Stop()
}
