// Package vcs reads version-control history: commit logs, line blame and
// per-file churn. Everything here is optional context; callers treat a
// missing repository as zero churn.
package vcs

import (
	"context"
	"sort"
	"time"

	"hammy/internal/graph"
)

// CommitInfo is one commit touching the repository or a path.
type CommitInfo struct {
	Revision     string    `json:"revision"`
	Author       string    `json:"author"`
	Date         time.Time `json:"date"`
	Message      string    `json:"message"`
	FilesChanged []string  `json:"files_changed"`
}

// BlameLine attributes one line of a file.
type BlameLine struct {
	LineNumber int    `json:"line_number"`
	Revision   string `json:"revision"`
	Author     string `json:"author"`
	Content    string `json:"content"`
}

// Provider answers history questions for one repository.
type Provider interface {
	// Log returns up to limit commits, newest first, optionally restricted
	// to commits touching path.
	Log(ctx context.Context, path string, limit int) ([]CommitInfo, error)
	// Blame attributes each line of path at HEAD.
	Blame(ctx context.Context, path string) ([]BlameLine, error)
	// Churn counts commits per file within the last windowDays days.
	Churn(ctx context.Context, windowDays int) (map[string]int, error)
}

// ChurnEntry is one row of a sorted churn report.
type ChurnEntry struct {
	File    string `json:"file"`
	Changes int    `json:"changes"`
}

// SortChurn orders a churn map by change count descending, then path.
func SortChurn(churn map[string]int) []ChurnEntry {
	out := make([]ChurnEntry, 0, len(churn))
	for f, n := range churn {
		out = append(out, ChurnEntry{File: f, Changes: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Changes != out[j].Changes {
			return out[i].Changes > out[j].Changes
		}
		return out[i].File < out[j].File
	})
	return out
}

// maxOwners and maxIntents bound the history attached to a node.
const (
	maxOwners  = 3
	maxIntents = 5
)

// FileHistory builds the node history for file: churn from the supplied
// map, the most frequent blame authors as owners and the latest commit
// subjects as intent logs.
func FileHistory(ctx context.Context, p Provider, file string, churn map[string]int) (*graph.History, error) {
	h := &graph.History{
		ChurnRate:   churn[file],
		BlameOwners: []string{},
		IntentLogs:  []string{},
	}

	lines, err := p.Blame(ctx, file)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, l := range lines {
		counts[l.Author]++
	}
	owners := make([]string, 0, len(counts))
	for a := range counts {
		owners = append(owners, a)
	}
	sort.Slice(owners, func(i, j int) bool {
		if counts[owners[i]] != counts[owners[j]] {
			return counts[owners[i]] > counts[owners[j]]
		}
		return owners[i] < owners[j]
	})
	if len(owners) > maxOwners {
		owners = owners[:maxOwners]
	}
	h.BlameOwners = owners

	commits, err := p.Log(ctx, file, maxIntents)
	if err != nil {
		return nil, err
	}
	for _, c := range commits {
		h.IntentLogs = append(h.IntentLogs, c.Message)
	}
	return h, nil
}
