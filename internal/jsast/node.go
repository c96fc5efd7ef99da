// Package jsast provides the JavaScript syntax tree used by the adaptation
// pipeline: parsing with tree-sitter, node kinds, position metadata, and a
// printer that re-emits untouched code byte for byte.
//
// Trees are values. No function in this package mutates a node it was given;
// operations that change a tree build new nodes and share the untouched
// subtrees with their input.
package jsast

// Loc is the source position of a node. Line is zero-based and columns are
// counted in UTF-16 code units, which is what source maps use.
type Loc struct {
	Start     int
	End       int
	Line      int
	Column    int
	EndLine   int
	EndColumn int

	// Synthetic marks positions that do not belong to the file being
	// adapted, e.g. nodes parsed from a template fragment. The printer emits
	// no mapping for synthetic tokens.
	Synthetic bool
}

// Node is a syntax tree node.
//
// Leaves carry their token Text and the Leading text between the previous
// token and this one (whitespace plus any source text the grammar does not
// cover with a token of its own). Concatenating Leading+Text over all leaves
// and appending the program's Trailing text reproduces the source.
type Node struct {
	Kind     Kind
	Type     string
	Field    string
	Named    bool
	Text     string
	Leading  string
	Trailing string
	Loc      Loc
	Children []*Node
}

// IsLeaf reports whether n is a token.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// ChildByField returns the first child stored under the given grammar field.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.Children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// NamedChildren returns the named children of n, skipping comments.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Named && c.Kind != KindComment {
			out = append(out, c)
		}
	}
	return out
}

// FirstLeaf returns the first token under n, or nil for an empty node.
func (n *Node) FirstLeaf() *Node {
	for n != nil {
		if n.IsLeaf() {
			return n
		}
		n = n.Children[0]
	}
	return nil
}

// LeadingTrivia returns the text before the first token of n.
func (n *Node) LeadingTrivia() string {
	if leaf := n.FirstLeaf(); leaf != nil {
		return leaf.Leading
	}
	return ""
}

// Walk calls fn for n and every descendant in pre-order. Returning false from
// fn skips the node's children.
func Walk(n *Node, fn func(n, parent *Node) bool) {
	walk(n, nil, fn)
}

func walk(n, parent *Node, fn func(n, parent *Node) bool) {
	if !fn(n, parent) {
		return
	}
	for _, c := range n.Children {
		walk(c, n, fn)
	}
}

// shallowCopy returns a copy of n that owns a fresh Children slice.
func (n *Node) shallowCopy() *Node {
	cp := *n
	if n.Children != nil {
		cp.Children = make([]*Node, len(n.Children))
		copy(cp.Children, n.Children)
	}
	return &cp
}

// WithChildren returns a copy of n holding the given children.
func (n *Node) WithChildren(children []*Node) *Node {
	cp := *n
	cp.Children = children
	return &cp
}

// WithLeading returns a copy of n whose first token is preceded by leading.
// Only the nodes on the path to the first token are copied.
func WithLeading(n *Node, leading string) *Node {
	if n.IsLeaf() {
		cp := *n
		cp.Leading = leading
		return &cp
	}
	cp := n.shallowCopy()
	cp.Children[0] = WithLeading(n.Children[0], leading)
	return cp
}

// WithField returns a copy of n recorded under the given parent field.
func WithField(n *Node, field string) *Node {
	if n.Field == field {
		return n
	}
	cp := *n
	cp.Field = field
	return &cp
}
