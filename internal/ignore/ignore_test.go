package ignore

import (
	"path/filepath"
	"reflect"
	"testing"

	"hammy/internal/config"
	"hammy/internal/testutil"
)

func allSources() config.IgnoreConfig {
	return config.IgnoreConfig{UseGitignore: true, UseHgignore: true, UseHammyignore: true}
}

func TestIsIgnored_Defaults(t *testing.T) {
	m, err := New(t.TempDir(), config.IgnoreConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"node_modules", true, true},
		{"web/node_modules/react/index.js", false, true},
		{".git", true, true},
		{".hammy/index.db", false, true},
		{"src/app.min.js", false, true},
		{"src/app.js", false, false},
		{"yarn.lock", false, true},
		{"pkg/mod.pyc", false, true},
		{"src/build/x.py", false, true},
		{"src/builder.py", false, false},
		{".", true, false},
	}
	for _, tt := range tests {
		if got := m.IsIgnored(tt.path, tt.isDir); got != tt.want {
			t.Errorf("IsIgnored(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestIsIgnored_Sources(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		".gitignore":   "# comment\n\n*.log\ntmp/\n",
		".hammyignore": "generated/\n",
		".hgignore":    "^skip-regexp$\nsyntax: glob\n*.orig\n**/fixtures/*.json\n",
	})

	cfg := allSources()
	cfg.ExtraPatterns = []string{"secret.txt"}
	m, err := New(root, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"debug.log", false, true},
		{"logs/app.log", false, true},
		{"tmp", true, true},
		{"generated", true, true},
		{"src/a.php.orig", false, true},
		{"tests/fixtures/data.json", false, true},
		{"skip-regexp", false, false},
		{"secret.txt", false, true},
		{"src/main.py", false, false},
		{filepath.Join(root, "debug.log"), false, true},
		{"/elsewhere/debug.log", false, false},
	}
	for _, tt := range tests {
		if got := m.IsIgnored(tt.path, tt.isDir); got != tt.want {
			t.Errorf("IsIgnored(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestIsIgnored_DisabledSources(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{".gitignore": "*.log\n"})

	m, err := New(root, config.IgnoreConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.IsIgnored("debug.log", false) {
		t.Error(".gitignore should not apply when disabled")
	}
}

func TestFilter(t *testing.T) {
	m, err := New(t.TempDir(), config.IgnoreConfig{})
	if err != nil {
		t.Fatal(err)
	}
	got := m.Filter([]string{"a.py", "node_modules/x.js", "b.min.css", "c.go"})
	if want := []string{"a.py", "c.go"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

func TestReadHgGlobs(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		".hgignore": "syntax: glob\n*.bak\nsyntax: regexp\n.*\\.tmp$\nsyntax: glob\nout/**\n",
	})
	got := readHgGlobs(filepath.Join(root, ".hgignore"))
	if want := []string{"*.bak", "out/**"}; !reflect.DeepEqual(got, want) {
		t.Errorf("readHgGlobs() = %v, want %v", got, want)
	}
}
