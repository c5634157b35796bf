//go:build !cgo

package grammar

import (
	"context"
	"errors"
)

// ErrNoCGO is returned when parsing is unavailable because cgo is disabled.
var ErrNoCGO = errors.New("source parsing requires CGO (tree-sitter)")

// Parser is a stub for non-CGO builds.
type Parser struct{}

// NewParser returns a parser whose methods always fail.
func NewParser() *Parser { return &Parser{} }

// IsAvailable returns false when CGO is disabled.
func IsAvailable() bool { return false }

func (p *Parser) Parse(ctx context.Context, src []byte, lang Language) (*Tree, error) {
	return nil, ErrNoCGO
}

func (p *Parser) ParseFile(ctx context.Context, path string, src []byte) (*Tree, error) {
	return nil, ErrNoCGO
}
