package grammar

// Node is one syntax node. Children include anonymous tokens such as
// "async", ":" or "->", in source order.
type Node struct {
	typ       string
	src       []byte
	startByte uint32
	endByte   uint32
	startLine int
	endLine   int
	children  []*Node
}

// NewNode builds a node by hand. Lines are 1-indexed.
func NewNode(typ, text string, startLine, endLine int, children ...*Node) *Node {
	return &Node{
		typ:       typ,
		src:       []byte(text),
		endByte:   uint32(len(text)),
		startLine: startLine,
		endLine:   endLine,
		children:  children,
	}
}

// Leaf builds a single-line node with no children.
func Leaf(typ, text string, line int) *Node {
	return NewNode(typ, text, line, line)
}

func (n *Node) Type() string { return n.typ }

// Text returns the raw source covered by the node.
func (n *Node) Text() string {
	if n == nil || int(n.endByte) > len(n.src) {
		return ""
	}
	return string(n.src[n.startByte:n.endByte])
}

// StartLine is the 1-indexed first line.
func (n *Node) StartLine() int { return n.startLine }

// EndLine is the 1-indexed last line, inclusive.
func (n *Node) EndLine() int { return n.endLine }

// Lines returns [start, end].
func (n *Node) Lines() [2]int { return [2]int{n.startLine, n.endLine} }

func (n *Node) Children() []*Node { return n.children }

// FirstChild returns the first direct child, or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// LastChild returns the last direct child, or nil.
func (n *Node) LastChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[len(n.children)-1]
}

// Child returns the first direct child of the given type, or nil.
func (n *Node) Child(typ string) *Node {
	for _, c := range n.children {
		if c.typ == typ {
			return c
		}
	}
	return nil
}

// ChildText returns the text of the first direct child of the given type.
func (n *Node) ChildText(typ string) string {
	if c := n.Child(typ); c != nil {
		return c.Text()
	}
	return ""
}

// HasChild reports whether any direct child has the given type.
func (n *Node) HasChild(typ string) bool {
	return n.Child(typ) != nil
}

// Walk visits n and its descendants depth-first, pre-order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Tree is a parsed file.
type Tree struct {
	Root     *Node
	Language Language
	Source   []byte
}
