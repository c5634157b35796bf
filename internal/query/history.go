package query

import (
	"context"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/paths"
	"hammy/internal/vcs"
)

// DefaultLogLimit is how many commits Log returns when no limit is given.
const DefaultLogLimit = 20

// LogResponse is a commit history.
type LogResponse struct {
	Path    string           `json:"path,omitempty"`
	Commits []vcs.CommitInfo `json:"commits"`
}

// BlameResponse attributes each line of a file.
type BlameResponse struct {
	Path  string          `json:"path"`
	Lines []vcs.BlameLine `json:"lines"`
}

// ChurnResponse counts recent commits per file.
type ChurnResponse struct {
	WindowDays int              `json:"window_days"`
	Files      []vcs.ChurnEntry `json:"files"`
}

func (e *Engine) requireVCS() error {
	if e.vcs == nil {
		return hammyerrors.New(hammyerrors.VCSUnavailable, "no git repository at "+e.root, nil)
	}
	return nil
}

// Log returns up to limit commits, optionally only those touching path.
func (e *Engine) Log(ctx context.Context, path string, limit int) (*LogResponse, error) {
	if err := e.requireVCS(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	path = paths.NormalizePath(path)
	commits, err := e.vcs.Log(ctx, path, limit)
	if err != nil {
		return nil, err
	}
	return &LogResponse{Path: path, Commits: commits}, nil
}

// Blame attributes the lines of path at HEAD.
func (e *Engine) Blame(ctx context.Context, path string) (*BlameResponse, error) {
	if err := e.requireVCS(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, hammyerrors.Newf(hammyerrors.InvalidArgument, "blame needs a file path")
	}
	path = paths.NormalizePath(path)
	lines, err := e.vcs.Blame(ctx, path)
	if err != nil {
		return nil, err
	}
	return &BlameResponse{Path: path, Lines: lines}, nil
}

// Churn counts commits per file over windowDays, or the configured window
// when windowDays <= 0. topN > 0 keeps only the busiest files.
func (e *Engine) Churn(ctx context.Context, windowDays, topN int) (*ChurnResponse, error) {
	if err := e.requireVCS(); err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = e.cfg.VCS.ChurnWindowDays
	}
	churn, err := e.vcs.Churn(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	files := vcs.SortChurn(churn)
	if topN > 0 && len(files) > topN {
		files = files[:topN]
	}
	return &ChurnResponse{WindowDays: windowDays, Files: files}, nil
}
