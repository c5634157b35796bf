package complexity

import (
	"hammy/internal/grammar"
)

// Supported reports whether lang has complexity rules.
func Supported(lang grammar.Language) bool {
	_, ok := rules[lang]
	return ok
}

// Cyclomatic counts decision points under fn, plus one.
func Cyclomatic(fn *grammar.Node, lang grammar.Language) int {
	rs, ok := rules[lang]
	if !ok || fn == nil {
		return 1
	}
	score := 1
	fn.Walk(func(n *grammar.Node) bool {
		if countsAsDecision(rs, n) {
			score++
		}
		return true
	})
	return score
}

// Cognitive weights each decision point by its nesting depth.
func Cognitive(fn *grammar.Node, lang grammar.Language) int {
	rs, ok := rules[lang]
	if !ok || fn == nil {
		return 0
	}
	return cognitive(rs, fn, 0)
}

func cognitive(rs ruleSet, n *grammar.Node, depth int) int {
	score := 0
	if countsAsDecision(rs, n) {
		score += 1 + depth
	}
	if rs.nesting[n.Type()] {
		depth++
	}
	for _, c := range n.Children() {
		score += cognitive(rs, c, depth)
	}
	return score
}

// AnalyzeTree measures every function in a parsed file, including nested
// and anonymous ones.
func AnalyzeTree(path string, tree *grammar.Tree) *FileComplexity {
	fc := &FileComplexity{
		Path:      path,
		Language:  string(tree.Language),
		Functions: make([]Result, 0),
	}
	rs, ok := rules[tree.Language]
	if !ok {
		return fc
	}

	tree.Root.Walk(func(n *grammar.Node) bool {
		if rs.functions[n.Type()] {
			fc.Functions = append(fc.Functions, Result{
				Name:       functionName(n),
				StartLine:  n.StartLine(),
				EndLine:    n.EndLine(),
				Lines:      n.EndLine() - n.StartLine() + 1,
				Cyclomatic: Cyclomatic(n, tree.Language),
				Cognitive:  Cognitive(n, tree.Language),
			})
		}
		return true
	})

	fc.Aggregate()
	return fc
}

var nameTypes = []string{"identifier", "field_identifier", "property_identifier", "name"}

var anonymousTypes = map[string]bool{
	"arrow_function":                         true,
	"func_literal":                           true,
	"lambda":                                 true,
	"anonymous_function_creation_expression": true,
}

func functionName(n *grammar.Node) string {
	if anonymousTypes[n.Type()] {
		return "<anonymous>"
	}
	for _, t := range nameTypes {
		if name := n.ChildText(t); name != "" {
			return name
		}
	}
	return "<anonymous>"
}
