package diff

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@\s*(.*)$`)

// Scan reads a unified diff line by line. It accepts diffs go-diff
// rejects, such as pasted fragments with hunks but no index lines.
func Scan(text string) []ChangedFile {
	s := &scanner{files: []ChangedFile{}}
	for _, line := range strings.Split(text, "\n") {
		s.line(strings.TrimSuffix(line, "\r"))
	}
	s.flush()
	return s.files
}

type scanner struct {
	files   []ChangedFile
	current *ChangedFile
	syms    *symbolSet
	hunk    *Hunk
	oldLine int
	newLine int

	oldPath string
	oldNull bool
	pending ChangeType
}

func (s *scanner) line(line string) {
	switch {
	case strings.HasPrefix(line, "diff --git"):
		s.flush()
		s.oldPath, s.oldNull, s.pending = "", false, ""

	case strings.HasPrefix(line, "new file"):
		s.setType(Added)

	case strings.HasPrefix(line, "deleted file"):
		s.setType(Deleted)

	case strings.HasPrefix(line, "--- ") && (s.hunk == nil || s.hunkDone()):
		path := cleanPath(line[4:])
		s.oldNull = isDevNull(path)
		s.oldPath = path

	case strings.HasPrefix(line, "+++ ") && (s.hunk == nil || s.hunkDone()):
		s.flush()
		path := cleanPath(line[4:])
		cf := ChangedFile{Path: path, ChangeType: Modified}
		switch {
		case isDevNull(path):
			cf.Path, cf.ChangeType = s.oldPath, Deleted
		case s.oldNull:
			cf.ChangeType = Added
		case s.oldPath != "" && s.oldPath != path:
			cf.ChangeType, cf.OldPath = Renamed, s.oldPath
		}
		if s.pending != "" {
			cf.ChangeType = s.pending
		}
		if cf.Path == "" || isDevNull(cf.Path) {
			return
		}
		s.current = &cf
		s.syms = newSymbolSet()
		s.oldPath, s.oldNull, s.pending = "", false, ""

	case strings.HasPrefix(line, "@@"):
		if s.current == nil {
			return
		}
		s.closeHunk()
		m := hunkHeader.FindStringSubmatch(line)
		if m == nil {
			return
		}
		h := Hunk{
			OldStart: atoi(m[1]), OldLines: atoiDefault(m[2], 1),
			NewStart: atoi(m[3]), NewLines: atoiDefault(m[4], 1),
			Context: strings.TrimSpace(m[5]),
			Added:   []int{}, Removed: []int{},
		}
		s.syms.add(ContextSymbols(h.Context)...)
		s.hunk = &h
		s.oldLine, s.newLine = h.OldStart, h.NewStart

	case s.hunk != nil && line == "":
		s.oldLine++
		s.newLine++

	case s.hunk != nil:
		switch line[0] {
		case '+':
			s.hunk.Added = append(s.hunk.Added, s.newLine)
			s.newLine++
		case '-':
			s.hunk.Removed = append(s.hunk.Removed, s.oldLine)
			s.oldLine++
		case ' ':
			s.oldLine++
			s.newLine++
			return
		default:
			return
		}
		if name, ok := DefinedSymbol(line[1:]); ok {
			s.syms.add(name)
		}
	}
}

// hunkDone reports whether the open hunk has consumed all its lines, so
// a following "---" or "+++" is a header and not a changed line.
func (s *scanner) hunkDone() bool {
	return s.oldLine >= s.hunk.OldStart+s.hunk.OldLines && s.newLine >= s.hunk.NewStart+s.hunk.NewLines
}

func (s *scanner) setType(t ChangeType) {
	s.pending = t
	if s.current != nil && s.hunk == nil {
		s.current.ChangeType = t
	}
}

func (s *scanner) closeHunk() {
	if s.hunk != nil && s.current != nil {
		s.current.Hunks = append(s.current.Hunks, *s.hunk)
	}
	s.hunk = nil
}

func (s *scanner) flush() {
	s.closeHunk()
	if s.current != nil {
		s.current.ChangedSymbols = s.syms.names
		s.files = append(s.files, *s.current)
	}
	s.current = nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	return atoi(s)
}
