package extract

import (
	"strings"
	"unicode/utf8"

	"hammy/internal/complexity"
	"hammy/internal/grammar"
	"hammy/internal/graph"
)

// callConfidence marks call edges resolved by name only.
const callConfidence = 0.8

const maxContextLen = 200

// emitter accumulates one file's output.
type emitter struct {
	file  string
	lang  grammar.Language
	noise map[string]bool
	seen  map[string]bool
	res   Result
}

func newEmitter(file string, lang grammar.Language) *emitter {
	return &emitter{
		file:  file,
		lang:  lang,
		noise: callNoise[lang],
		seen:  make(map[string]bool),
	}
}

// node creates and records a node. A second node with the same id in one
// file is dropped; the first declaration wins.
func (e *emitter) node(typ graph.NodeType, name string, at *grammar.Node) *graph.Node {
	n := &graph.Node{
		ID:       graph.MakeID(e.file, name),
		Type:     typ,
		Name:     name,
		Loc:      graph.Location{File: e.file, Lines: at.Lines()},
		Language: string(e.lang),
		Meta:     graph.NodeMeta{Parameters: []string{}},
	}
	if !e.seen[n.ID] {
		e.seen[n.ID] = true
		e.res.Nodes = append(e.res.Nodes, n)
	}
	return n
}

// callable creates a function or method node and scores its complexity.
func (e *emitter) callable(typ graph.NodeType, name string, at, body *grammar.Node) *graph.Node {
	n := e.node(typ, name, at)
	score := complexity.Cyclomatic(body, e.lang)
	n.Meta.ComplexityScore = &score
	return n
}

func (e *emitter) edge(edge graph.Edge) {
	e.res.Edges = append(e.res.Edges, edge)
}

func (e *emitter) defines(owner, member string) {
	e.edge(graph.NewEdge(owner, member, graph.RelDefines))
}

// imports links this file to a module's file pseudo-symbol.
func (e *emitter) imports(module, context string) {
	e.edge(graph.NewEdge(graph.FileID(e.file), graph.FileID(module), graph.RelImports).WithContext(context))
}

// call records a name-resolved call unless the callee is noise.
func (e *emitter) call(sourceID, callee, context string) bool {
	name, ok := resolveCallee(callee, e.noise)
	if !ok {
		return false
	}
	if context == "" {
		context = name
	}
	e.edge(graph.NewEdge(sourceID, graph.UnscopedID(name), graph.RelCalls).
		WithConfidence(callConfidence).
		WithContext(truncate(context, maxContextLen)))
	return true
}

// consumer records an outbound HTTP call site.
func (e *emitter) consumer(sourceID, url string, at *grammar.Node, context string) {
	ep := e.node(graph.NodeEndpoint, graph.EndpointPrefix+url, at)
	ep.Name = url
	edge := graph.NewEdge(sourceID, ep.ID, graph.RelNetworksTo).WithContext(context)
	edge.Metadata.IsBridge = true
	e.edge(edge)
}

// provider records a route declared by owner.
func (e *emitter) provider(owner *graph.Node, route string, at *grammar.Node) {
	ep := e.node(graph.NodeEndpoint, graph.EndpointPrefix+route, at)
	ep.Name = route
	e.defines(owner.ID, ep.ID)
}

// resolveCallee returns the callee name for a call edge, rejecting empty
// text, noise, constructor calls and dangling member access.
func resolveCallee(text string, noise map[string]bool) (string, bool) {
	if text == "" || noise[text] {
		return "", false
	}
	if strings.HasPrefix(text, "new ") || strings.HasSuffix(text, ".") {
		return "", false
	}
	return text, true
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func unquote(s string) string {
	return strings.Trim(s, "'\"`")
}

func hasAsync(n *grammar.Node) bool {
	return n.HasChild("async")
}

var paramListTypes = []string{"formal_parameters", "parameter_list", "parameters"}

// parameters returns the parameter names of a function-like node.
func parameters(fn *grammar.Node) []string {
	for _, t := range paramListTypes {
		if list := fn.Child(t); list != nil {
			return paramNames(list)
		}
	}
	return []string{}
}

func paramNames(list *grammar.Node) []string {
	params := []string{}
	for _, c := range list.Children() {
		switch c.Type() {
		case "simple_parameter", "required_parameter", "optional_parameter":
			if v := c.Child("variable_name"); v != nil {
				params = append(params, v.Text())
			} else if id := c.ChildText("identifier"); id != "" {
				params = append(params, id)
			}
		case "identifier":
			params = append(params, c.Text())
		case "parameter_declaration", "variadic_parameter_declaration":
			for _, id := range c.Children() {
				if id.Type() == "identifier" {
					params = append(params, id.Text())
				}
			}
		case "typed_parameter", "typed_default_parameter", "default_parameter":
			if id := c.ChildText("identifier"); id != "" {
				params = append(params, id)
			}
		}
	}
	return params
}
