// Package ignore decides which paths the indexer and watcher skip. Patterns
// come from built-in defaults, .gitignore, the glob section of .hgignore,
// .hammyignore and configured extra patterns.
package ignore

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"

	"hammy/internal/config"
)

// DefaultPatterns are always ignored. Entries ending in "/" name
// directories at any depth; the rest are basename globs.
var DefaultPatterns = []string{
	".git/",
	".hg/",
	".hammy/",
	"__pycache__/",
	"*.pyc",
	"node_modules/",
	"vendor/",
	".vendor/",
	"bower_components/",
	"dist/",
	"build/",
	".cache/",
	".tox/",
	".venv/",
	"venv/",
	".env/",
	"*.min.js",
	"*.min.css",
	"*.map",
	"*.lock",
	"package-lock.json",
	"composer.lock",
	".DS_Store",
	"Thumbs.db",
}

// Manager answers IsIgnored for paths under one project root.
type Manager struct {
	root string

	// dirNames are directory names ignored at any depth.
	dirNames map[string]bool
	// baseGlobs match a file's basename.
	baseGlobs []glob.Glob
	// pathGlobs come from .hgignore and match the relative path or basename.
	pathGlobs []glob.Glob
	// gitignore-syntax sources, nil when none contributed a pattern.
	matcher *gitignore.GitIgnore
}

// New builds a manager for root from the ignore config. Missing ignore
// files are not an error.
func New(root string, cfg config.IgnoreConfig) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	m := &Manager{root: abs, dirNames: make(map[string]bool)}

	for _, p := range DefaultPatterns {
		if name, ok := strings.CutSuffix(p, "/"); ok {
			m.dirNames[name] = true
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		m.baseGlobs = append(m.baseGlobs, g)
	}

	var lines []string
	if cfg.UseGitignore {
		lines = append(lines, readIgnoreFile(filepath.Join(abs, ".gitignore"))...)
	}
	if cfg.UseHgignore {
		for _, p := range readHgGlobs(filepath.Join(abs, ".hgignore")) {
			// Malformed hg globs are skipped like regexp lines.
			if g, err := glob.Compile(p, '/'); err == nil {
				m.pathGlobs = append(m.pathGlobs, g)
			}
		}
	}
	if cfg.UseHammyignore {
		lines = append(lines, readIgnoreFile(filepath.Join(abs, ".hammyignore"))...)
	}
	lines = append(lines, cfg.ExtraPatterns...)
	if len(lines) > 0 {
		m.matcher = gitignore.CompileIgnoreLines(lines...)
	}
	return m, nil
}

// Root returns the absolute project root.
func (m *Manager) Root() string { return m.root }

// IsIgnored reports whether p should be skipped. p may be absolute or
// relative to the root; absolute paths outside the root are never ignored.
func (m *Manager) IsIgnored(p string, isDir bool) bool {
	rel := p
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(m.root, p)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return false
	}

	parts := strings.Split(rel, "/")
	dirs := parts
	if !isDir {
		dirs = parts[:len(parts)-1]
	}
	for _, d := range dirs {
		if m.dirNames[d] {
			return true
		}
	}

	base := path.Base(rel)
	if !isDir {
		for _, g := range m.baseGlobs {
			if g.Match(base) {
				return true
			}
		}
	}
	for _, g := range m.pathGlobs {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}

	if m.matcher != nil {
		if m.matcher.MatchesPath(rel) {
			return true
		}
		if isDir && m.matcher.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}

// Filter returns the paths that are not ignored, treating each as a file.
func (m *Manager) Filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !m.IsIgnored(p, false) {
			out = append(out, p)
		}
	}
	return out
}

// readIgnoreFile returns the non-blank, non-comment lines of a
// gitignore-style file.
func readIgnoreFile(p string) []string {
	f, err := os.Open(p)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}
	return lines
}

// readHgGlobs returns the patterns of an .hgignore file that sit under a
// "syntax: glob" directive. Mercurial defaults to regexp syntax, and
// regexp lines are skipped.
func readHgGlobs(p string) []string {
	mode := "regexp"
	var globs []string
	for _, line := range readIgnoreFile(p) {
		if rest, ok := strings.CutPrefix(line, "syntax:"); ok {
			mode = strings.TrimSpace(rest)
			continue
		}
		if mode == "glob" {
			globs = append(globs, line)
		}
	}
	return globs
}
