package extract

import (
	"fmt"
	"strings"

	"hammy/internal/grammar"
	"hammy/internal/graph"
)

// ecma walks JavaScript and TypeScript trees; ts enables the TypeScript
// declarations and annotations.
type ecma struct {
	*emitter
	ts bool
}

func extractJavaScript(tree *grammar.Tree, file string) Result {
	w := ecma{emitter: newEmitter(file, grammar.JavaScript)}
	w.statements(tree.Root.Children())
	return w.res
}

func extractTypeScript(tree *grammar.Tree, file string) Result {
	w := ecma{emitter: newEmitter(file, grammar.TypeScript), ts: true}
	w.statements(tree.Root.Children())
	return w.res
}

func (w ecma) statements(stmts []*grammar.Node) {
	for _, n := range stmts {
		switch n.Type() {
		case "import_statement":
			w.importStatement(n)
		case "export_statement":
			w.statements(n.Children())
		case "function_declaration":
			w.function(n)
		case "class_declaration":
			w.class(n)
		case "lexical_declaration", "variable_declaration":
			w.lexical(n)
		case "expression_statement":
			w.commonJSExport(n)
		case "interface_declaration":
			if w.ts {
				w.interfaceDecl(n)
			}
		case "enum_declaration":
			if w.ts {
				w.enumDecl(n)
			}
		}
	}
}

func (w ecma) importStatement(n *grammar.Node) {
	src := n.Child("string")
	if src == nil {
		return
	}
	module := unquote(src.Text())
	if module == "" {
		return
	}

	var names []string
	if clause := n.Child("import_clause"); clause != nil {
		if named := clause.Child("named_imports"); named != nil {
			for _, spec := range named.Children() {
				if spec.Type() == "import_specifier" {
					if id := spec.ChildText("identifier"); id != "" {
						names = append(names, id)
					}
				}
			}
		}
		if w.ts {
			if id := clause.ChildText("identifier"); id != "" {
				names = append(names, id)
			}
		}
	}
	w.imports(module, fmt.Sprintf("import {%s} from '%s'", strings.Join(names, ", "), module))
}

func (w ecma) function(n *grammar.Node) {
	name := n.ChildText("identifier")
	if name == "" {
		return
	}
	fn := w.callable(graph.NodeFunction, name, n, n)
	w.signature(fn, n)
	w.body(n, fn.ID)
}

func (w ecma) class(n *grammar.Node) {
	name := n.ChildText("type_identifier")
	if name == "" {
		name = n.ChildText("identifier")
	}
	if name == "" {
		return
	}
	cls := w.node(graph.NodeClass, name, n)

	body := n.Child("class_body")
	if body == nil {
		return
	}
	for _, member := range body.Children() {
		if member.Type() == "method_definition" {
			w.method(member, name, cls.ID)
		}
	}
}

func (w ecma) method(n *grammar.Node, class, classID string) {
	name := n.ChildText("property_identifier")
	if name == "" {
		return
	}
	m := w.callable(graph.NodeMethod, class+"."+name, n, n)
	w.signature(m, n)
	if w.ts {
		if v := n.Child("accessibility_modifier"); v != nil {
			m.Meta.Visibility = v.Text()
		}
	}
	w.defines(classID, m.ID)
	w.body(n, m.ID)
}

var functionValueTypes = []string{"arrow_function", "function_expression", "function"}

func functionValue(n *grammar.Node) *grammar.Node {
	for _, t := range functionValueTypes {
		if f := n.Child(t); f != nil {
			return f
		}
	}
	return nil
}

// lexical handles const f = () => {} and var f = function() {}.
func (w ecma) lexical(n *grammar.Node) {
	for _, decl := range n.Children() {
		if decl.Type() != "variable_declarator" {
			continue
		}
		name := decl.ChildText("identifier")
		value := functionValue(decl)
		if name == "" || value == nil {
			continue
		}
		fn := w.callable(graph.NodeFunction, name, n, value)
		w.signature(fn, value)
		w.body(value, fn.ID)
	}
}

// commonJSExport handles module.exports = function() {} and
// exports.name = () => {}.
func (w ecma) commonJSExport(n *grammar.Node) {
	assign := n.Child("assignment_expression")
	if assign == nil || assign.FirstChild() == nil {
		return
	}

	var name string
	switch left := assign.FirstChild().Text(); {
	case left == "module.exports":
		name = "__default__"
	case strings.HasPrefix(left, "exports."):
		name = strings.TrimPrefix(left, "exports.")
	default:
		return
	}

	value := functionValue(assign)
	if value == nil {
		return
	}
	if named := value.ChildText("identifier"); named != "" {
		name = named
	}

	fn := w.callable(graph.NodeFunction, name, n, value)
	w.signature(fn, value)
	w.body(value, fn.ID)
}

func (w ecma) interfaceDecl(n *grammar.Node) {
	if name := n.ChildText("type_identifier"); name != "" {
		w.node(graph.NodeInterface, name, n)
	}
}

func (w ecma) enumDecl(n *grammar.Node) {
	if name := n.ChildText("identifier"); name != "" {
		w.node(graph.NodeClass, name, n).Summary = "enum"
	}
}

func (w ecma) signature(sym *graph.Node, fn *grammar.Node) {
	sym.Meta.IsAsync = hasAsync(fn)
	sym.Meta.Parameters = parameters(fn)
	if w.ts {
		sym.Meta.ReturnType = typeAnnotation(fn)
	}
}

// body scans a function body for calls. Arrow functions with an
// expression body are scanned too.
func (w ecma) body(fn *grammar.Node, sourceID string) {
	body := fn.Child("statement_block")
	if body == nil && fn.Type() == "arrow_function" {
		body = fn.LastChild()
	}
	if body != nil {
		w.calls(body, sourceID)
	}
}

func (w ecma) calls(body *grammar.Node, sourceID string) {
	body.Walk(func(n *grammar.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		callee := n.FirstChild()
		if callee == nil {
			return true
		}
		text := callee.Text()
		w.call(sourceID, text, n.Text())

		if text == "fetch" || strings.HasPrefix(text, "axios.") {
			if url := firstStringArg(n.Child("arguments"), "string", "template_string"); url != "" {
				w.consumer(sourceID, url, n, fmt.Sprintf("%s('%s')", text, url))
			}
		}
		return true
	})
}

// firstStringArg returns the first argument of one of the given literal
// types, unquoted.
func firstStringArg(args *grammar.Node, types ...string) string {
	if args == nil {
		return ""
	}
	for _, a := range args.Children() {
		for _, t := range types {
			if a.Type() == t {
				return unquote(a.Text())
			}
		}
	}
	return ""
}

func typeAnnotation(fn *grammar.Node) string {
	ann := fn.Child("type_annotation")
	if ann == nil {
		return ""
	}
	for _, c := range ann.Children() {
		if c.Type() != ":" {
			return c.Text()
		}
	}
	return ""
}
