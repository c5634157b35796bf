package extract

import (
	"fmt"
	"strings"

	"hammy/internal/grammar"
	"hammy/internal/graph"
)

var goHTTPClients = words("http.Get", "http.Post", "http.Head", "http.NewRequest")

func extractGo(tree *grammar.Tree, file string) Result {
	e := newEmitter(file, grammar.Go)
	for _, n := range tree.Root.Children() {
		switch n.Type() {
		case "import_declaration":
			goImports(e, n)
		case "function_declaration":
			goFunction(e, n)
		case "method_declaration":
			goMethod(e, n)
		case "type_declaration":
			goTypes(e, n)
		}
	}
	return e.res
}

func goImports(e *emitter, n *grammar.Node) {
	for _, c := range n.Children() {
		switch c.Type() {
		case "import_spec":
			goImport(e, c)
		case "import_spec_list":
			for _, spec := range c.Children() {
				if spec.Type() == "import_spec" {
					goImport(e, spec)
				}
			}
		}
	}
}

func goImport(e *emitter, spec *grammar.Node) {
	path := spec.Child("interpreted_string_literal")
	if path == nil {
		return
	}
	module := unquote(path.Text())
	if module == "" {
		return
	}
	context := fmt.Sprintf("import %q", module)
	if alias := spec.ChildText("package_identifier"); alias != "" {
		context = fmt.Sprintf("import %s %q", alias, module)
	}
	e.imports(module, context)
}

func goFunction(e *emitter, n *grammar.Node) {
	name := n.ChildText("identifier")
	if name == "" {
		return
	}
	fn := e.callable(graph.NodeFunction, name, n, n)
	lists := paramLists(n)
	if len(lists) > 0 {
		fn.Meta.Parameters = paramNames(lists[0])
	}
	fn.Meta.ReturnType = goReturnType(n, lists, 1)
	if body := n.Child("block"); body != nil {
		goCalls(e, body, fn.ID)
	}
}

// goMethod names methods Recv.name and links them from the receiver type.
func goMethod(e *emitter, n *grammar.Node) {
	name := n.ChildText("field_identifier")
	if name == "" {
		return
	}
	lists := paramLists(n)
	recv := ""
	if len(lists) > 0 {
		recv = receiverType(lists[0])
	}

	full := name
	if recv != "" {
		full = recv + "." + name
	}
	m := e.callable(graph.NodeMethod, full, n, n)
	if len(lists) > 1 {
		m.Meta.Parameters = paramNames(lists[1])
	}
	m.Meta.ReturnType = goReturnType(n, lists, 2)
	if recv != "" {
		e.defines(graph.MakeID(e.file, recv), m.ID)
	}
	if body := n.Child("block"); body != nil {
		goCalls(e, body, m.ID)
	}
}

func paramLists(n *grammar.Node) []*grammar.Node {
	var lists []*grammar.Node
	for _, c := range n.Children() {
		if c.Type() == "parameter_list" {
			lists = append(lists, c)
		}
	}
	return lists
}

// receiverType finds the named type in a receiver list, through pointers
// and type arguments.
func receiverType(list *grammar.Node) string {
	var name string
	list.Walk(func(n *grammar.Node) bool {
		if name != "" {
			return false
		}
		if n.Type() == "type_identifier" {
			name = n.Text()
			return false
		}
		return true
	})
	return name
}

var goTypeNodes = map[string]bool{
	"type_identifier": true,
	"pointer_type":    true,
	"slice_type":      true,
	"map_type":        true,
	"qualified_type":  true,
	"array_type":      true,
	"generic_type":    true,
	"channel_type":    true,
	"function_type":   true,
	"interface_type":  true,
}

// goReturnType returns the single result type, or the parenthesized result
// list when resultIdx selects one.
func goReturnType(n *grammar.Node, lists []*grammar.Node, resultIdx int) string {
	if len(lists) > resultIdx {
		return lists[resultIdx].Text()
	}
	for _, c := range n.Children() {
		if goTypeNodes[c.Type()] {
			return c.Text()
		}
	}
	return ""
}

func goTypes(e *emitter, n *grammar.Node) {
	for _, spec := range n.Children() {
		switch spec.Type() {
		case "type_spec":
			name := spec.ChildText("type_identifier")
			if name == "" {
				continue
			}
			switch {
			case spec.HasChild("interface_type"):
				e.node(graph.NodeInterface, name, spec)
			case spec.HasChild("struct_type"):
				e.node(graph.NodeClass, name, spec).Summary = "struct"
			default:
				e.node(graph.NodeClass, name, spec).Summary = "type alias"
			}
		case "type_alias":
			if name := spec.ChildText("type_identifier"); name != "" {
				e.node(graph.NodeClass, name, spec).Summary = "type alias"
			}
		}
	}
}

func goCalls(e *emitter, body *grammar.Node, sourceID string) {
	body.Walk(func(n *grammar.Node) bool {
		if n.Type() != "call_expression" {
			return true
		}
		callee := n.FirstChild()
		if callee == nil {
			return true
		}
		text := callee.Text()
		e.call(sourceID, text, text)

		if goHTTPClients[text] {
			if url := goURLArg(n.Child("argument_list")); url != "" {
				e.consumer(sourceID, url, n, fmt.Sprintf("%s(%q)", text, url))
			}
		}
		return true
	})
}

var httpMethods = words("GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS")

// goURLArg returns the first string literal argument that is not an HTTP
// method name, so http.NewRequest("GET", "/x", nil) yields "/x".
func goURLArg(args *grammar.Node) string {
	if args == nil {
		return ""
	}
	for _, a := range args.Children() {
		if a.Type() != "interpreted_string_literal" && a.Type() != "raw_string_literal" {
			continue
		}
		if s := unquote(a.Text()); s != "" && !httpMethods[strings.ToUpper(s)] {
			return s
		}
	}
	return ""
}
