package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	hammyerrors "hammy/internal/errors"
	"hammy/internal/slogutil"
)

type commitStep struct {
	author  string
	message string
	files   map[string]string
	when    time.Time
}

func testRepo(t *testing.T, steps ...commitStep) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	for _, s := range steps {
		for name, content := range s.files {
			full := filepath.Join(dir, name)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
			if _, err := w.Add(name); err != nil {
				t.Fatalf("failed to add %s: %v", name, err)
			}
		}
		sig := &object.Signature{Name: s.author, Email: s.author + "@example.com", When: s.when}
		if _, err := w.Commit(s.message, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}
	}
	return dir
}

func historyRepo(t *testing.T) string {
	now := time.Now()
	return testRepo(t,
		commitStep{author: "ana", message: "add billing\n\nlong body", when: now.Add(-72 * time.Hour),
			files: map[string]string{"billing.php": "<?php\nfunction charge() {}\n", "app.js": "fetch('/x')\n"}},
		commitStep{author: "ben", message: "fix charge rounding", when: now.Add(-48 * time.Hour),
			files: map[string]string{"billing.php": "<?php\nfunction charge() { round(); }\n"}},
		commitStep{author: "ana", message: "old change", when: now.AddDate(0, 0, -200),
			files: map[string]string{"legacy.py": "pass\n"}},
	)
}

func openTestRepo(t *testing.T, dir string) *GitProvider {
	t.Helper()
	p, err := OpenGit(dir, 0, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenGit() error = %v", err)
	}
	return p
}

func TestOpenGit_NotARepo(t *testing.T) {
	_, err := OpenGit(t.TempDir(), 0, slogutil.NewDiscardLogger())
	if !hammyerrors.HasCode(err, hammyerrors.VCSUnavailable) {
		t.Errorf("OpenGit(non-repo) error = %v, want VCS_UNAVAILABLE", err)
	}
}

func TestLog(t *testing.T) {
	p := openTestRepo(t, historyRepo(t))
	ctx := context.Background()

	all, err := p.Log(ctx, "", 0)
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Log() returned %d commits, want 3", len(all))
	}

	billing, err := p.Log(ctx, "billing.php", 10)
	if err != nil {
		t.Fatalf("Log(billing.php) error = %v", err)
	}
	if len(billing) != 2 {
		t.Fatalf("Log(billing.php) returned %d commits, want 2", len(billing))
	}
	if billing[0].Message != "fix charge rounding" || billing[0].Author != "ben" {
		t.Errorf("newest billing commit = %+v", billing[0])
	}
	if billing[1].Message != "add billing" {
		t.Errorf("subject should be the first message line, got %q", billing[1].Message)
	}

	limited, _ := p.Log(ctx, "", 1)
	if len(limited) != 1 {
		t.Errorf("Log(limit 1) returned %d", len(limited))
	}
}

func TestChurn(t *testing.T) {
	p := openTestRepo(t, historyRepo(t))

	churn, err := p.Churn(context.Background(), 90)
	if err != nil {
		t.Fatalf("Churn() error = %v", err)
	}
	if churn["billing.php"] != 2 {
		t.Errorf("churn[billing.php] = %d, want 2", churn["billing.php"])
	}
	if churn["app.js"] != 1 {
		t.Errorf("churn[app.js] = %d, want 1", churn["app.js"])
	}
	if _, ok := churn["legacy.py"]; ok {
		t.Error("commit outside the window should not count")
	}

	sorted := SortChurn(churn)
	if sorted[0].File != "billing.php" {
		t.Errorf("SortChurn()[0] = %+v, want billing.php first", sorted[0])
	}
}

func TestBlameAndFileHistory(t *testing.T) {
	p := openTestRepo(t, historyRepo(t))
	ctx := context.Background()

	lines, err := p.Blame(ctx, "billing.php")
	if err != nil {
		t.Fatalf("Blame() error = %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Blame() returned %d lines, want 2", len(lines))
	}
	if lines[0].Author != "ana" || lines[1].Author != "ben" {
		t.Errorf("blame authors = %s, %s; want ana, ben", lines[0].Author, lines[1].Author)
	}

	if _, err := p.Blame(ctx, "missing.go"); !hammyerrors.HasCode(err, hammyerrors.FileNotFound) {
		t.Errorf("Blame(missing) error = %v, want FILE_NOT_FOUND", err)
	}

	h, err := FileHistory(ctx, p, "billing.php", map[string]int{"billing.php": 2})
	if err != nil {
		t.Fatalf("FileHistory() error = %v", err)
	}
	if h.ChurnRate != 2 {
		t.Errorf("ChurnRate = %d, want 2", h.ChurnRate)
	}
	if len(h.BlameOwners) != 2 || h.BlameOwners[0] != "ana" {
		t.Errorf("BlameOwners = %v, want [ana ben]", h.BlameOwners)
	}
	if len(h.IntentLogs) != 2 || h.IntentLogs[0] != "fix charge rounding" {
		t.Errorf("IntentLogs = %v", h.IntentLogs)
	}
}
