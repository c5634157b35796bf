package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hammy/internal/paths"
	"hammy/internal/vcs"
)

const (
	// MetadataVersion is the current version of the metadata format.
	MetadataVersion = 1

	metadataFile = "index-meta.json"
)

// IndexMeta describes the last full index written to disk.
type IndexMeta struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	CommitHash string    `json:"commit_hash,omitempty"`
	FileCount  int       `json:"file_count"`
	NodeCount  int       `json:"node_count"`
	EdgeCount  int       `json:"edge_count"`
	Languages  []string  `json:"languages"`
	Errors     int       `json:"errors"`
	DurationMs int64     `json:"duration_ms"`
}

// FreshnessResult says whether the stored index still matches the tree.
type FreshnessResult struct {
	Fresh         bool   `json:"fresh"`
	Reason        string `json:"reason,omitempty"`
	Age           string `json:"age,omitempty"`
	ModifiedFiles int    `json:"modified_files"`
	IndexedCommit string `json:"indexed_commit,omitempty"`
	CurrentCommit string `json:"current_commit,omitempty"`
}

// NewMeta records a finished run.
func NewMeta(root string, stats Stats, nodes, edges int, languages []string) *IndexMeta {
	return &IndexMeta{
		CreatedAt:  time.Now(),
		CommitHash: vcs.HeadRevision(root),
		FileCount:  stats.FilesProcessed,
		NodeCount:  nodes,
		EdgeCount:  edges,
		Languages:  languages,
		Errors:     len(stats.Errors),
		DurationMs: stats.DurationMs,
	}
}

// LoadMeta loads metadata from dataDir. A missing file, or one written by a
// different format version, yields nil without an error.
func LoadMeta(dataDir string) (*IndexMeta, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index metadata: %w", err)
	}

	var meta IndexMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing index metadata: %w", err)
	}
	if meta.Version != MetadataVersion {
		return nil, nil
	}
	return &meta, nil
}

// Save writes the metadata to dataDir.
func (m *IndexMeta) Save(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	m.Version = MetadataVersion

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling index metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, metadataFile), data, 0644); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}
	return nil
}

// CheckFreshness compares the metadata against the tree under root. files
// are the project-relative paths the index holds; any of them modified or
// removed after CreatedAt makes the index stale, as does a moved HEAD.
func (m *IndexMeta) CheckFreshness(root string, files []string) FreshnessResult {
	if m == nil {
		return FreshnessResult{Reason: "no index metadata found"}
	}
	res := FreshnessResult{
		Age:           humanDuration(time.Since(m.CreatedAt)),
		IndexedCommit: m.CommitHash,
		CurrentCommit: vcs.HeadRevision(root),
	}

	for _, f := range files {
		info, err := os.Stat(paths.JoinRepoPath(root, f))
		if err != nil || info.ModTime().After(m.CreatedAt) {
			res.ModifiedFiles++
		}
	}

	switch {
	case m.CommitHash != "" && res.CurrentCommit != "" && m.CommitHash != res.CurrentCommit:
		res.Reason = "HEAD moved since the last index"
	case res.ModifiedFiles > 0:
		res.Reason = fmt.Sprintf("%d file(s) changed since the last index", res.ModifiedFiles)
	default:
		res.Fresh = true
	}
	return res
}

// humanDuration formats a duration in human-readable form.
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
