// Package watcher turns file system notifications under a project root into
// debounced batches of project-relative change events.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hammy/internal/ignore"
)

// DefaultDebounce is the quiet period before a batch is emitted.
const DefaultDebounce = 1500 * time.Millisecond

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one coalesced change. Path is relative to the project root and
// slash-separated.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ChangeHandler receives each debounced batch.
type ChangeHandler func(events []Event)

// Watcher watches every non-ignored directory under a root.
type Watcher struct {
	root      string
	ignore    *ignore.Manager
	logger    *slog.Logger
	handler   ChangeHandler
	debouncer *BatchDebouncer

	fs       *fsnotify.Watcher
	mu       sync.Mutex
	watching bool
	dirs     int
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher. ign may be nil; debounce <= 0 uses DefaultDebounce.
func New(root string, ign *ignore.Manager, debounce time.Duration, logger *slog.Logger, handler ChangeHandler) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		root:    abs,
		ignore:  ign,
		logger:  logger,
		handler: handler,
		done:    make(chan struct{}),
	}
	w.debouncer = NewBatchDebouncer(debounce, w.emit)
	return w, nil
}

// Start registers the directory tree and begins delivering batches. It
// returns once watches are in place.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w.fs = fw
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.root); err != nil {
		w.Stop()
		return err
	}
	w.logger.Info("Watching project", "root", w.root, "directories", w.DirCount())

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop stops watching and emits any pending batch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.watching {
		w.mu.Unlock()
		return
	}
	w.watching = false
	close(w.done)
	_ = w.fs.Close()
	w.mu.Unlock()

	w.wg.Wait()
	w.debouncer.Flush()
	w.logger.Info("Watcher stopped")
}

// DirCount returns how many directories are watched.
func (w *Watcher) DirCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirs
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignored(p, true) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			w.logger.Warn("Failed to watch directory", "path", p, "error", err)
			return nil
		}
		w.mu.Lock()
		w.dirs++
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) ignored(abs string, isDir bool) bool {
	return w.ignore != nil && w.ignore.IsIgnored(abs, isDir)
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
		isDir = true
	}
	if w.ignored(ev.Name, isDir) {
		return
	}
	if isDir {
		if ev.Has(fsnotify.Create) {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", ev.Name, "error", err)
			}
		}
		return
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	w.debouncer.Add(Event{
		Type:      convertOp(ev.Op),
		Path:      filepath.ToSlash(rel),
		Timestamp: time.Now(),
	})
}

func convertOp(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate
	case op.Has(fsnotify.Remove):
		return EventDelete
	case op.Has(fsnotify.Rename):
		return EventRename
	default:
		return EventModify
	}
}

func (w *Watcher) emit(events []Event) {
	w.logger.Debug("Change batch", "events", len(events))
	if w.handler != nil {
		w.handler(events)
	}
}
