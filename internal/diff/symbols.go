package diff

import (
	"regexp"
	"strings"
)

// definitions match a symbol definition at the start of a source line.
// Order matters: the first match wins.
var definitions = []*regexp.Regexp{
	// def foo / async def foo
	regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w+)`),
	// public static function foo
	regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+([A-Za-z_]\w+)`),
	// export async function foo
	regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_]\w+)`),
	// const foo = async (...) => / const foo = function
	regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_]\w+)\s*=\s*(?:async\s+)?(?:function|\()`),
	// func Foo / func (r *Recv) Foo
	regexp.MustCompile(`^\s*func\s+(?:\([^)]+\)\s+)?([A-Za-z_]\w+)`),
	// class Foo / abstract class Foo
	regexp.MustCompile(`^\s*(?:abstract\s+)?class\s+([A-Za-z_]\w+)`),
	// public async fooBar( / private render<T>(
	regexp.MustCompile(`^\s*(?:(?:public|private|protected|override|static|abstract|async|readonly)\s+)+([A-Za-z_]\w+)\s*[(<]`),
}

var identifier = regexp.MustCompile(`^[A-Za-z_]\w+$`)

// keywords never count as symbols when read from a hunk header.
var keywords = map[string]bool{
	"def": true, "class": true, "function": true, "func": true, "async": true,
	"public": true, "private": true, "protected": true, "static": true, "abstract": true,
	"final": true, "export": true, "const": true, "let": true, "var": true, "return": true,
	"interface": true, "type": true, "struct": true, "override": true, "readonly": true,
	"package": true, "namespace": true, "import": true, "module": true,
}

// DefinedSymbol returns the symbol a source line defines, if any.
func DefinedSymbol(line string) (string, bool) {
	for _, re := range definitions {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ContextSymbols reads symbol names from the text git prints after a hunk
// header, such as "class Foo::method" or "def handler(request):". A
// definition match is preferred; otherwise every identifier-like word that
// is not a keyword is returned.
func ContextSymbols(hint string) []string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}
	if name, ok := DefinedSymbol(hint); ok {
		return []string{name}
	}
	var out []string
	for _, part := range strings.FieldsFunc(hint, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	}) {
		part = strings.TrimRight(part, "(")
		if identifier.MatchString(part) && !keywords[part] {
			out = append(out, part)
		}
	}
	return out
}

// symbolSet keeps names unique in first-seen order.
type symbolSet struct {
	seen  map[string]bool
	names []string
}

func newSymbolSet() *symbolSet {
	return &symbolSet{seen: make(map[string]bool), names: []string{}}
}

func (s *symbolSet) add(names ...string) {
	for _, n := range names {
		if n != "" && !s.seen[n] {
			s.seen[n] = true
			s.names = append(s.names, n)
		}
	}
}
