//go:build cgo

package grammar

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	hammyerrors "hammy/internal/errors"
)

// Parser parses source bytes into Trees. It is safe for concurrent use;
// each call gets its own tree-sitter parser.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{pool: sync.Pool{New: func() any { return sitter.NewParser() }}}
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool { return true }

// Parse parses src with the default grammar for lang.
func (p *Parser) Parse(ctx context.Context, src []byte, lang Language) (*Tree, error) {
	return p.parse(ctx, src, lang, false)
}

// ParseFile parses src, picking the grammar dialect from path.
func (p *Parser) ParseFile(ctx context.Context, path string, src []byte) (*Tree, error) {
	lang, ok := ForPath(path)
	if !ok {
		return nil, hammyerrors.Newf(hammyerrors.UnsupportedLanguage, "no grammar for %s", path)
	}
	return p.parse(ctx, src, lang, IsTSX(path))
}

func (p *Parser) parse(ctx context.Context, src []byte, lang Language, tsxDialect bool) (*Tree, error) {
	tsLang := sitterLanguage(lang, tsxDialect)
	if tsLang == nil {
		return nil, hammyerrors.Newf(hammyerrors.UnsupportedLanguage, "unsupported language: %s", lang)
	}

	sp := p.pool.Get().(*sitter.Parser)
	defer p.pool.Put(sp)
	sp.SetLanguage(tsLang)

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, hammyerrors.New(hammyerrors.ParseFailed, fmt.Sprintf("parse %s source", lang), err)
	}
	defer tree.Close()

	return &Tree{
		Root:     convert(tree.RootNode(), src),
		Language: lang,
		Source:   src,
	}, nil
}

func sitterLanguage(lang Language, tsxDialect bool) *sitter.Language {
	switch lang {
	case PHP:
		return php.GetLanguage()
	case JavaScript:
		return javascript.GetLanguage()
	case TypeScript:
		if tsxDialect {
			return tsx.GetLanguage()
		}
		return typescript.GetLanguage()
	case Python:
		return python.GetLanguage()
	case Go:
		return golang.GetLanguage()
	default:
		return nil
	}
}

// convert copies the tree-sitter tree into Nodes sharing src.
func convert(sn *sitter.Node, src []byte) *Node {
	if sn == nil {
		return nil
	}
	n := &Node{
		typ:       sn.Type(),
		src:       src,
		startByte: sn.StartByte(),
		endByte:   sn.EndByte(),
		startLine: int(sn.StartPoint().Row) + 1,
		endLine:   int(sn.EndPoint().Row) + 1,
	}
	count := int(sn.ChildCount())
	if count > 0 {
		n.children = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			if c := convert(sn.Child(i), src); c != nil {
				n.children = append(n.children, c)
			}
		}
	}
	return n
}
