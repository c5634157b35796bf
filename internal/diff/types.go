// Package diff parses unified diffs into changed files and symbols and
// estimates the blast radius of each changed symbol.
package diff

import "hammy/internal/impact"

// ChangeType describes what a diff did to a file.
type ChangeType string

const (
	Modified ChangeType = "modified"
	Added    ChangeType = "added"
	Deleted  ChangeType = "deleted"
	Renamed  ChangeType = "renamed"
)

// Hunk is one @@ section of a file diff.
type Hunk struct {
	OldStart int    `json:"old_start"`
	OldLines int    `json:"old_lines"`
	NewStart int    `json:"new_start"`
	NewLines int    `json:"new_lines"`
	Context  string `json:"context,omitempty"`
	Added    []int  `json:"added"`
	Removed  []int  `json:"removed"`
}

// ChangedFile is a file touched by the diff with the symbol names its
// hunks define or sit in, in order of first appearance.
type ChangedFile struct {
	Path           string     `json:"path"`
	OldPath        string     `json:"old_path,omitempty"`
	ChangeType     ChangeType `json:"change_type"`
	ChangedSymbols []string   `json:"changed_symbols"`
	Hunks          []Hunk     `json:"hunks,omitempty"`
}

// SymbolImpact is the caller-side blast radius of one indexed node whose
// name a diff changed.
type SymbolImpact struct {
	Symbol      string            `json:"symbol"`
	NodeID      string            `json:"node_id"`
	Type        string            `json:"type"`
	File        string            `json:"file"`
	Line        int               `json:"line"`
	CallerCount int               `json:"caller_count"`
	Callers     []impact.Affected `json:"callers"`
	Risk        impact.RiskLevel  `json:"risk"`
	Summary     string            `json:"summary,omitempty"`
	Visibility  string            `json:"visibility,omitempty"`
}

// Report is the full diff analysis.
type Report struct {
	ChangedFiles      []ChangedFile  `json:"changed_files"`
	AllChangedSymbols []string       `json:"all_changed_symbols"`
	Impact            []SymbolImpact `json:"impact"`
	// Unindexed lists changed names with no node in the graph: new code
	// not yet indexed, or code the diff deletes.
	Unindexed []string `json:"unindexed"`
}

// Empty reports whether the diff contained nothing to analyze.
func (r *Report) Empty() bool {
	return len(r.ChangedFiles) == 0
}
