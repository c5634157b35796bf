package index

import (
	"io/fs"
	"path/filepath"
	"sort"

	"hammy/internal/grammar"
	"hammy/internal/ignore"
)

// SourceFile is one parseable file found by Walk.
type SourceFile struct {
	Rel      string           `json:"path"`
	Abs      string           `json:"-"`
	Size     int64            `json:"size"`
	Language grammar.Language `json:"language"`
}

// WalkOptions filters the project walk.
type WalkOptions struct {
	// Languages restricts the walk; empty means every supported language.
	Languages []grammar.Language
	// MaxFileBytes skips larger files; 0 disables the cap.
	MaxFileBytes int64
}

// WalkResult lists the files to parse, sorted by relative path.
type WalkResult struct {
	Files []SourceFile
	// Skipped counts files with a known language that were dropped for size
	// or because their language is disabled.
	Skipped int
}

// Walk lists the source files under root that are not ignored. Ignored
// directories are pruned. Unreadable entries are skipped silently.
func Walk(root string, ign *ignore.Manager, opts WalkOptions) (WalkResult, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return WalkResult{}, err
	}
	enabled := make(map[grammar.Language]bool)
	for _, l := range opts.Languages {
		enabled[l] = true
	}

	var res WalkResult
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != abs {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(abs, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ign != nil && ign.IsIgnored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ign != nil && ign.IsIgnored(rel, false) {
			return nil
		}
		lang, ok := grammar.ForPath(rel)
		if !ok {
			return nil
		}
		if len(enabled) > 0 && !enabled[lang] {
			res.Skipped++
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes {
			res.Skipped++
			return nil
		}
		res.Files = append(res.Files, SourceFile{Rel: rel, Abs: p, Size: info.Size(), Language: lang})
		return nil
	})
	if err != nil {
		return WalkResult{}, err
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].Rel < res.Files[j].Rel })
	return res, nil
}
