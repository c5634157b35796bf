package extract

import (
	"strings"

	"hammy/internal/grammar"
	"hammy/internal/graph"
)

func extractPHP(tree *grammar.Tree, file string) Result {
	e := newEmitter(file, grammar.PHP)
	phpStatements(e, tree.Root.Children(), "")
	return e.res
}

// phpStatements walks top-level statements; a braced namespace recurses
// with its own name.
func phpStatements(e *emitter, stmts []*grammar.Node, namespace string) {
	for _, n := range stmts {
		switch n.Type() {
		case "namespace_definition":
			namespace = n.ChildText("namespace_name")
			if body := n.Child("compound_statement"); body != nil {
				phpStatements(e, body.Children(), namespace)
			}
		case "namespace_use_declaration":
			phpUse(e, n)
		case "class_declaration":
			phpClass(e, n, namespace, graph.NodeClass)
		case "interface_declaration":
			phpClass(e, n, namespace, graph.NodeInterface)
		case "function_definition":
			phpFunction(e, n, namespace)
		}
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + `\` + name
}

func phpUse(e *emitter, n *grammar.Node) {
	for _, clause := range n.Children() {
		if clause.Type() != "namespace_use_clause" {
			continue
		}
		imported := clause.Text()
		if imported == "" {
			continue
		}
		e.edge(graph.NewEdge(graph.FileID(e.file), graph.UnscopedID(imported), graph.RelImports).
			WithContext("use " + imported))
	}
}

func phpClass(e *emitter, n *grammar.Node, namespace string, typ graph.NodeType) {
	name := n.ChildText("name")
	if name == "" {
		return
	}
	full := qualify(namespace, name)
	cls := e.node(typ, full, n)

	if route := phpRoute(n); route != "" {
		cls.Summary = "Route: " + route
		e.provider(cls, route, n)
	}

	body := n.Child("declaration_list")
	if body == nil {
		return
	}
	for _, member := range body.Children() {
		if member.Type() == "method_declaration" {
			phpMethod(e, member, full, cls.ID)
		}
	}
}

func phpMethod(e *emitter, n *grammar.Node, class, classID string) {
	name := n.ChildText("name")
	if name == "" {
		return
	}
	m := e.callable(graph.NodeMethod, class+"::"+name, n, n)
	m.Meta.Visibility = phpVisibility(n)
	m.Meta.Parameters = parameters(n)
	m.Meta.ReturnType = phpReturnType(n)
	e.defines(classID, m.ID)

	if route := phpRoute(n); route != "" {
		m.Summary = "Route: " + route
		e.provider(m, route, n)
	}
	if body := n.Child("compound_statement"); body != nil {
		phpCalls(e, body, m.ID)
	}
}

func phpFunction(e *emitter, n *grammar.Node, namespace string) {
	name := n.ChildText("name")
	if name == "" {
		return
	}
	fn := e.callable(graph.NodeFunction, qualify(namespace, name), n, n)
	fn.Meta.Parameters = parameters(n)
	fn.Meta.ReturnType = phpReturnType(n)
	if body := n.Child("compound_statement"); body != nil {
		phpCalls(e, body, fn.ID)
	}
}

func phpCalls(e *emitter, body *grammar.Node, sourceID string) {
	body.Walk(func(n *grammar.Node) bool {
		var callee string
		switch n.Type() {
		case "function_call_expression":
			if c := n.FirstChild(); c != nil {
				callee = c.Text()
			}
		case "member_call_expression", "nullsafe_member_call_expression":
			callee = n.ChildText("name")
		case "scoped_call_expression":
			var parts []string
			for _, c := range n.Children() {
				if c.Type() == "name" || c.Type() == "qualified_name" {
					parts = append(parts, c.Text())
				}
			}
			callee = strings.Join(parts, "::")
		default:
			return true
		}
		e.call(sourceID, callee, "")
		return true
	})
}

// phpRoute reads the path from a #[Route('/path')] attribute.
func phpRoute(n *grammar.Node) string {
	attrs := n.Child("attribute_list")
	if attrs == nil {
		return ""
	}
	for _, group := range attrs.Children() {
		if group.Type() != "attribute_group" {
			continue
		}
		for _, attr := range group.Children() {
			if attr.Type() != "attribute" || !strings.Contains(attr.Text(), "Route") {
				continue
			}
			args := attr.Child("arguments")
			if args == nil {
				continue
			}
			for _, arg := range args.Children() {
				switch arg.Type() {
				case "argument":
					if s := phpString(arg); s != nil {
						return unquote(s.Text())
					}
				case "string", "encapsed_string":
					return unquote(arg.Text())
				}
			}
		}
	}
	return ""
}

func phpString(n *grammar.Node) *grammar.Node {
	if s := n.Child("string"); s != nil {
		return s
	}
	return n.Child("encapsed_string")
}

func phpVisibility(n *grammar.Node) string {
	if v := n.Child("visibility_modifier"); v != nil && v.Text() != "" {
		return v.Text()
	}
	return "public"
}

var phpTypeNodes = map[string]bool{
	"named_type":     true,
	"primitive_type": true,
	"optional_type":  true,
	"union_type":     true,
}

func phpReturnType(n *grammar.Node) string {
	afterColon := false
	for _, c := range n.Children() {
		if c.Type() == ":" {
			afterColon = true
		} else if afterColon && phpTypeNodes[c.Type()] {
			return c.Text()
		}
	}
	return ""
}
