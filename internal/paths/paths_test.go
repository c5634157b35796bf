package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "src", "api")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(sub, "users.php")
	if err := os.WriteFile(file, []byte("<?php"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath() error = %v", err)
	}
	if got != "src/api/users.php" {
		t.Errorf("CanonicalizePath() = %q, want %q", got, "src/api/users.php")
	}

	// a deleted file still canonicalizes
	gone := filepath.Join(root, "src", "gone.js")
	got, err = CanonicalizePath(gone, root)
	if err != nil {
		t.Fatalf("CanonicalizePath(deleted) error = %v", err)
	}
	if got != "src/gone.js" {
		t.Errorf("CanonicalizePath(deleted) = %q, want %q", got, "src/gone.js")
	}
}

func TestIsWithinRepo(t *testing.T) {
	root := t.TempDir()
	if !IsWithinRepo(filepath.Join(root, "a.go"), root) {
		t.Error("file under root should be within repo")
	}
	if IsWithinRepo(filepath.Dir(root), root) {
		t.Error("parent of root should not be within repo")
	}
}

func TestDataPaths(t *testing.T) {
	root := "/work/project"
	cases := map[string]string{
		IndexDBPath(root):      "index.db",
		IndexLockPath(root):    "index.lock",
		IndexMetaPath(root):    "index-meta.json",
		LogPath(root, "watch"):  "watch.log",
	}
	for path, suffix := range cases {
		if !strings.HasPrefix(path, DataDir(root)) {
			t.Errorf("%q not under %q", path, DataDir(root))
		}
		if !strings.HasSuffix(path, suffix) {
			t.Errorf("%q should end with %q", path, suffix)
		}
	}
}

func TestJoinRepoPath(t *testing.T) {
	got := JoinRepoPath("/root", "a/b/c.py")
	want := filepath.Join("/root", "a", "b", "c.py")
	if got != want {
		t.Errorf("JoinRepoPath() = %q, want %q", got, want)
	}
}
