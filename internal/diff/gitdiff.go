package diff

import (
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Parse reads a unified diff. Well-formed input is parsed with go-diff;
// input go-diff rejects is read by the line scanner instead. Empty or
// unrecognizable input yields no files.
func Parse(text string) []ChangedFile {
	if strings.TrimSpace(text) == "" {
		return []ChangedFile{}
	}
	files, err := parseMultiFile(text)
	if err != nil || len(files) == 0 {
		return Scan(text)
	}
	return files
}

func parseMultiFile(text string) ([]ChangedFile, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(text))
	if err != nil {
		return nil, err
	}
	files := make([]ChangedFile, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		if cf, ok := fromFileDiff(fd); ok {
			files = append(files, cf)
		}
	}
	return files, nil
}

func fromFileDiff(fd *godiff.FileDiff) (ChangedFile, bool) {
	oldPath, newPath := cleanPath(fd.OrigName), cleanPath(fd.NewName)
	cf := ChangedFile{Path: newPath, OldPath: oldPath, ChangeType: Modified}

	switch {
	case isDevNull(fd.OrigName) || hasExtended(fd, "new file"):
		cf.ChangeType = Added
		cf.OldPath = ""
	case isDevNull(fd.NewName) || hasExtended(fd, "deleted file"):
		cf.ChangeType = Deleted
		cf.Path = oldPath
	case oldPath != "" && newPath != "" && oldPath != newPath:
		cf.ChangeType = Renamed
	}
	if cf.ChangeType == Modified || cf.ChangeType == Added {
		cf.OldPath = ""
	}
	if cf.Path == "" || isDevNull(cf.Path) {
		return ChangedFile{}, false
	}

	syms := newSymbolSet()
	for _, h := range fd.Hunks {
		hunk := Hunk{
			OldStart: int(h.OrigStartLine),
			OldLines: int(h.OrigLines),
			NewStart: int(h.NewStartLine),
			NewLines: int(h.NewLines),
			Context:  strings.TrimSpace(h.Section),
		}
		syms.add(ContextSymbols(h.Section)...)
		scanHunkBody(&hunk, strings.Split(strings.TrimSuffix(string(h.Body), "\n"), "\n"), syms)
		cf.Hunks = append(cf.Hunks, hunk)
	}
	cf.ChangedSymbols = syms.names
	return cf, true
}

// scanHunkBody records changed line numbers and the symbols defined on
// added or removed lines.
func scanHunkBody(h *Hunk, lines []string, syms *symbolSet) {
	h.Added, h.Removed = []int{}, []int{}
	oldLine, newLine := h.OldStart, h.NewStart
	for _, line := range lines {
		if line == "" {
			oldLine++
			newLine++
			continue
		}
		switch line[0] {
		case '+':
			h.Added = append(h.Added, newLine)
			newLine++
		case '-':
			h.Removed = append(h.Removed, oldLine)
			oldLine++
		case '\\':
			// "\ No newline at end of file"
			continue
		default:
			oldLine++
			newLine++
			continue
		}
		if name, ok := DefinedSymbol(line[1:]); ok {
			syms.add(name)
		}
	}
}

func hasExtended(fd *godiff.FileDiff, prefix string) bool {
	for _, ext := range fd.Extended {
		if strings.HasPrefix(ext, prefix) {
			return true
		}
	}
	return false
}

func isDevNull(path string) bool {
	return path == "/dev/null"
}

// cleanPath removes the a/ or b/ prefix and any trailing timestamp.
func cleanPath(path string) string {
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if path == "" || isDevNull(path) {
		return path
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}

// IsSourceFile reports whether path looks like hand-written source rather
// than vendored, generated or lock files.
func IsSourceFile(path string) bool {
	for _, prefix := range []string{"vendor/", "node_modules/", ".git/", "testdata/"} {
		if strings.HasPrefix(path, prefix) || strings.Contains(path, "/"+prefix) {
			return false
		}
	}
	for _, suffix := range []string{".sum", ".lock", ".min.js", ".min.css", ".map", ".pb.go", "_generated.go", "-lock.json"} {
		if strings.HasSuffix(path, suffix) {
			return false
		}
	}
	return true
}
