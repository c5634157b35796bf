// Package incremental keeps the graph current while files change. A single
// writer goroutine applies change batches to the mutable graph and publishes
// an immutable snapshot after each batch; readers only ever see whole
// snapshots.
package incremental

import (
	"time"

	"hammy/internal/index"
	"hammy/internal/watcher"
)

// ChangeType represents how a file changed
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// ChangedFile is one project-relative path to re-examine. The type is a
// hint; whether the file still exists is checked when the batch is applied.
type ChangedFile struct {
	Path       string     `json:"path"`
	ChangeType ChangeType `json:"change_type"`
}

// ApplyResult summarizes one applied batch.
type ApplyResult struct {
	Version      uint64            `json:"version"`
	Reindexed    []string          `json:"reindexed"`
	Removed      []string          `json:"removed"`
	Unchanged    int               `json:"unchanged"`
	Ignored      int               `json:"ignored"`
	NodesRemoved int               `json:"nodes_removed"`
	NodesAdded   int               `json:"nodes_added"`
	EdgesAdded   int               `json:"edges_added"`
	BridgeEdges  int               `json:"bridge_edges"`
	VectorErrors int               `json:"vector_errors"`
	Errors       []index.FileError `json:"errors"`
	Duration     time.Duration     `json:"-"`
}

// FromEvents converts a watcher batch into changed files.
func FromEvents(events []watcher.Event) []ChangedFile {
	out := make([]ChangedFile, 0, len(events))
	for _, ev := range events {
		ct := ChangeModified
		switch ev.Type {
		case watcher.EventCreate:
			ct = ChangeAdded
		case watcher.EventDelete, watcher.EventRename:
			ct = ChangeDeleted
		}
		out = append(out, ChangedFile{Path: ev.Path, ChangeType: ct})
	}
	return out
}
