// Package grammar parses source files with tree-sitter and exposes the
// result as a plain Go node tree.
package grammar

import (
	"path/filepath"
	"strings"
)

// Language identifies a supported source language.
type Language string

const (
	PHP        Language = "php"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Python     Language = "python"
	Go         Language = "go"
)

// Languages lists every supported language in a stable order.
var Languages = []Language{PHP, JavaScript, TypeScript, Python, Go}

var extensions = map[string]Language{
	".php": PHP,
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
	".ts":  TypeScript,
	".tsx": TypeScript,
	".py":  Python,
	".pyi": Python,
	".go":  Go,
}

// ForPath returns the language for a file path based on its extension.
func ForPath(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// IsTSX reports whether path needs the TSX dialect of the TypeScript grammar.
func IsTSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tsx")
}

// ParseLanguage converts a language name, case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Languages {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// Extensions returns the file extensions mapped to lang.
func Extensions(lang Language) []string {
	var exts []string
	for ext, l := range extensions {
		if l == lang {
			exts = append(exts, ext)
		}
	}
	return exts
}

func (l Language) String() string { return string(l) }
