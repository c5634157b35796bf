package complexity

import (
	"hammy/internal/grammar"
)

type ruleSet struct {
	functions map[string]bool
	decisions map[string]bool
	nesting   map[string]bool
}

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

var ecmaRules = ruleSet{
	functions: set("function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"),
	decisions: set("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement",
		"switch_case", "catch_clause", "ternary_expression", "binary_expression", "optional_chain_expression"),
	nesting: set("if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement",
		"switch_statement", "try_statement", "arrow_function", "function_expression"),
}

var rules = map[grammar.Language]ruleSet{
	grammar.Go: {
		functions: set("function_declaration", "method_declaration", "func_literal"),
		decisions: set("if_statement", "for_statement", "range_clause", "expression_case", "type_case",
			"select_statement", "communication_case", "binary_expression"),
		nesting: set("if_statement", "for_statement", "select_statement", "type_switch_statement",
			"expression_switch_statement", "func_literal"),
	},
	grammar.JavaScript: ecmaRules,
	grammar.TypeScript: ecmaRules,
	grammar.Python: {
		functions: set("function_definition", "lambda"),
		decisions: set("if_statement", "elif_clause", "for_statement", "while_statement", "except_clause",
			"with_statement", "boolean_operator", "conditional_expression", "list_comprehension",
			"dictionary_comprehension", "set_comprehension", "generator_expression"),
		nesting: set("if_statement", "for_statement", "while_statement", "try_statement", "with_statement",
			"lambda", "list_comprehension", "dictionary_comprehension", "set_comprehension", "generator_expression"),
	},
	grammar.PHP: {
		functions: set("function_definition", "method_declaration", "anonymous_function_creation_expression", "arrow_function"),
		decisions: set("if_statement", "else_if_clause", "for_statement", "foreach_statement", "while_statement",
			"do_statement", "case_statement", "catch_clause", "conditional_expression", "binary_expression"),
		nesting: set("if_statement", "for_statement", "foreach_statement", "while_statement", "do_statement",
			"switch_statement", "try_statement", "anonymous_function_creation_expression", "arrow_function"),
	},
}

var booleanOperators = set("&&", "||", "and", "or")

// isBooleanOperator reports whether a binary node joins its operands
// with a short-circuit operator.
func isBooleanOperator(n *grammar.Node) bool {
	if n.Type() != "binary_expression" && n.Type() != "boolean_operator" {
		return false
	}
	for _, c := range n.Children() {
		if booleanOperators[c.Type()] || booleanOperators[c.Text()] {
			return true
		}
	}
	return false
}

func countsAsDecision(rs ruleSet, n *grammar.Node) bool {
	if !rs.decisions[n.Type()] {
		return false
	}
	switch n.Type() {
	case "binary_expression", "boolean_operator":
		return isBooleanOperator(n)
	}
	return true
}
