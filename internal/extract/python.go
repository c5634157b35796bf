package extract

import (
	"fmt"
	"slices"
	"strings"

	"hammy/internal/grammar"
	"hammy/internal/graph"
)

var (
	pyRouteObjects = words("app", "router", "blueprint", "bp", "api")
	pyRouteMethods = words("route", "get", "post", "put", "patch", "delete", "head", "options")
)

func extractPython(tree *grammar.Tree, file string) Result {
	e := newEmitter(file, grammar.Python)
	for _, n := range tree.Root.Children() {
		switch n.Type() {
		case "import_statement":
			pyImport(e, n)
		case "import_from_statement":
			pyFromImport(e, n)
		case "class_definition":
			pyClass(e, n)
		case "function_definition":
			pyFunction(e, n, nil)
		case "decorated_definition":
			pyDecorated(e, n)
		}
	}
	return e.res
}

func pyImport(e *emitter, n *grammar.Node) {
	for _, c := range n.Children() {
		module := ""
		switch c.Type() {
		case "dotted_name":
			module = c.Text()
		case "aliased_import":
			module = c.ChildText("dotted_name")
		}
		if module != "" {
			e.imports(module, "import "+module)
		}
	}
}

func pyFromImport(e *emitter, n *grammar.Node) {
	var module string
	var names []string
	for _, c := range n.Children() {
		switch c.Type() {
		case "dotted_name":
			if module == "" {
				module = c.Text()
			} else {
				names = append(names, c.Text())
			}
		case "relative_import":
			module = c.Text()
		case "aliased_import":
			names = append(names, c.ChildText("dotted_name"))
		}
	}
	if module == "" {
		return
	}
	context := "import " + module
	if len(names) > 0 {
		context = fmt.Sprintf("from %s import %s", module, strings.Join(names, ", "))
	}
	e.imports(module, context)
}

func pyClass(e *emitter, n *grammar.Node) {
	name := n.ChildText("identifier")
	if name == "" {
		return
	}
	cls := e.node(graph.NodeClass, name, n)

	body := n.Child("block")
	if body == nil {
		return
	}
	for _, member := range body.Children() {
		switch member.Type() {
		case "function_definition":
			pyMethod(e, member, name, cls.ID)
		case "decorated_definition":
			if fn := member.Child("function_definition"); fn != nil {
				pyMethod(e, fn, name, cls.ID)
			}
		}
	}
}

func pyMethod(e *emitter, n *grammar.Node, class, classID string) {
	name := n.ChildText("identifier")
	if name == "" {
		return
	}
	m := e.callable(graph.NodeMethod, class+"."+name, n, n)
	m.Meta.IsAsync = hasAsync(n)
	m.Meta.ReturnType = pyReturnType(n)
	for _, p := range parameters(n) {
		if p != "self" && p != "cls" {
			m.Meta.Parameters = append(m.Meta.Parameters, p)
		}
	}
	e.defines(classID, m.ID)
	if body := n.Child("block"); body != nil {
		pyCalls(e, body, m.ID)
	}
}

func pyFunction(e *emitter, n *grammar.Node, routes []string) {
	name := n.ChildText("identifier")
	if name == "" {
		return
	}
	fn := e.callable(graph.NodeFunction, name, n, n)
	fn.Meta.IsAsync = hasAsync(n)
	fn.Meta.Parameters = parameters(n)
	fn.Meta.ReturnType = pyReturnType(n)
	if body := n.Child("block"); body != nil {
		pyCalls(e, body, fn.ID)
	}
	if len(routes) > 0 {
		fn.Summary = "Route: " + strings.Join(routes, ", ")
	}
	for _, route := range routes {
		e.provider(fn, route, n)
	}
}

// pyDecorated handles a decorated function or class. Every route decorator
// defines an endpoint, in source order; other decorators are ignored.
func pyDecorated(e *emitter, n *grammar.Node) {
	var routes []string
	for _, c := range n.Children() {
		if c.Type() != "decorator" {
			continue
		}
		if route := pyRoute(c); route != "" && !slices.Contains(routes, route) {
			routes = append(routes, route)
		}
	}
	if fn := n.Child("function_definition"); fn != nil {
		pyFunction(e, fn, routes)
		return
	}
	if cls := n.Child("class_definition"); cls != nil {
		pyClass(e, cls)
	}
}

func pyCalls(e *emitter, body *grammar.Node, sourceID string) {
	body.Walk(func(n *grammar.Node) bool {
		if n.Type() == "call" {
			if callee := n.FirstChild(); callee != nil {
				e.call(sourceID, callee.Text(), n.Text())
			}
		}
		return true
	})
}

// pyRoute recognizes @app.route("/x"), @router.get("/x") and friends.
func pyRoute(decorator *grammar.Node) string {
	call := decorator.Child("call")
	if call == nil {
		return ""
	}
	callee := call.FirstChild()
	if callee == nil || callee.Type() != "attribute" {
		return ""
	}
	obj := callee.Child("identifier")
	method := callee.LastChild()
	if obj == nil || method == nil || method.Type() != "identifier" {
		return ""
	}
	if !pyRouteObjects[strings.ToLower(obj.Text())] || !pyRouteMethods[strings.ToLower(method.Text())] {
		return ""
	}
	return firstStringArg(call.Child("argument_list"), "string")
}

func pyReturnType(n *grammar.Node) string {
	afterArrow := false
	for _, c := range n.Children() {
		if c.Type() == "->" {
			afterArrow = true
		} else if afterArrow && c.Type() == "type" {
			return c.Text()
		}
	}
	return ""
}
