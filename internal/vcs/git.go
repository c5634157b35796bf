package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	hammyerrors "hammy/internal/errors"
)

// DefaultMaxCommits bounds how many commits a churn scan visits.
const DefaultMaxCommits = 5000

// errStop ends a commit iteration early.
var errStop = errors.New("stop iteration")

// GitProvider implements Provider on a git repository through go-git, so
// no git binary is needed.
type GitProvider struct {
	root       string
	repo       *gogit.Repository
	maxCommits int
	logger     *slog.Logger
}

// OpenGit opens the repository containing root. A directory that is not
// inside a git work tree fails with VCS_UNAVAILABLE.
func OpenGit(root string, maxCommits int, logger *slog.Logger) (*GitProvider, error) {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, hammyerrors.New(hammyerrors.VCSUnavailable, fmt.Sprintf("no git repository at %s", root), err)
	}
	if maxCommits <= 0 {
		maxCommits = DefaultMaxCommits
	}
	return &GitProvider{root: root, repo: repo, maxCommits: maxCommits, logger: logger}, nil
}

// Log implements Provider.
func (g *GitProvider) Log(ctx context.Context, path string, limit int) ([]CommitInfo, error) {
	opts := &gogit.LogOptions{Order: gogit.LogOrderCommitterTime}
	if path != "" {
		p := path
		opts.FileName = &p
	}
	if limit <= 0 {
		limit = g.maxCommits
	}

	iter, err := g.repo.Log(opts)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("git log: %w", err)
	}
	defer iter.Close()

	commits := []CommitInfo{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(commits) >= limit {
			return errStop
		}
		commits = append(commits, commitInfo(c))
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return commits, nil
}

// Blame implements Provider.
func (g *GitProvider) Blame(ctx context.Context, path string) ([]BlameLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	head, err := g.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	commit, err := g.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("loading HEAD commit: %w", err)
	}

	result, err := gogit.Blame(commit, path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, hammyerrors.New(hammyerrors.FileNotFound, path+" is not tracked at HEAD", err)
		}
		return nil, fmt.Errorf("git blame %s: %w", path, err)
	}

	lines := make([]BlameLine, len(result.Lines))
	for i, l := range result.Lines {
		author := l.AuthorName
		if author == "" {
			author = l.Author
		}
		lines[i] = BlameLine{
			LineNumber: i + 1,
			Revision:   l.Hash.String(),
			Author:     author,
			Content:    l.Text,
		}
	}
	return lines, nil
}

// Churn implements Provider. At most maxCommits commits are visited.
func (g *GitProvider) Churn(ctx context.Context, windowDays int) (map[string]int, error) {
	since := time.Now().AddDate(0, 0, -windowDays)
	iter, err := g.repo.Log(&gogit.LogOptions{Order: gogit.LogOrderCommitterTime, Since: &since})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return map[string]int{}, nil
		}
		return nil, fmt.Errorf("git log: %w", err)
	}
	defer iter.Close()

	churn := make(map[string]int)
	visited := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if visited >= g.maxCommits {
			return errStop
		}
		visited++
		for _, f := range filesChanged(c) {
			churn[f]++
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	g.logger.Debug("Computed churn", "window_days", windowDays, "commits", visited, "files", len(churn))
	return churn, nil
}

func commitInfo(c *object.Commit) CommitInfo {
	return CommitInfo{
		Revision:     c.Hash.String(),
		Author:       c.Author.Name,
		Date:         c.Author.When,
		Message:      subject(c.Message),
		FilesChanged: filesChanged(c),
	}
}

func subject(message string) string {
	first, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(first)
}

func filesChanged(c *object.Commit) []string {
	stats, err := c.Stats()
	if err != nil {
		return []string{}
	}
	files := make([]string, len(stats))
	for i, s := range stats {
		files[i] = s.Name
	}
	return files
}

// Head returns the commit hash HEAD points at, or "" for an empty repository.
func (g *GitProvider) Head() (string, error) {
	ref, err := g.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// HeadRevision opens the repository containing root and returns its HEAD
// commit. Directories outside git yield "" without an error.
func HeadRevision(root string) string {
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
