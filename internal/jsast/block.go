package jsast

import (
	"fmt"
	"strings"
)

// WithBlockBody returns a copy of block, a statement block, holding stmts
// between its braces. The first statement starts on a new line and the
// closing brace is preceded by closing.
func WithBlockBody(block *Node, stmts []*Node, closing string) (*Node, error) {
	if block.Kind != KindBlockStatement || len(block.Children) < 2 {
		return nil, fmt.Errorf("expected a block statement, got %s", block.Kind)
	}
	open, close := block.Children[0], block.Children[len(block.Children)-1]
	if open.Text != "{" || close.Text != "}" {
		return nil, fmt.Errorf("block statement is not delimited by braces")
	}

	children := make([]*Node, 0, len(stmts)+2)
	children = append(children, open)
	for i, s := range stmts {
		if i == 0 && !strings.Contains(s.LeadingTrivia(), "\n") {
			s = WithLeading(s, "\n"+s.LeadingTrivia())
		}
		children = append(children, s)
	}
	children = append(children, WithLeading(close, closing))
	return block.WithChildren(children), nil
}

// FunctionBody returns the body block of a function expression, arrow
// function or function declaration.
func FunctionBody(fn *Node) (*Node, bool) {
	switch fn.Kind {
	case KindFunctionExpression, KindArrowFunctionExpression, KindFunctionDeclaration:
	default:
		return nil, false
	}
	body := fn.ChildByField("body")
	if body == nil || body.Kind != KindBlockStatement {
		return nil, false
	}
	return body, true
}

// ReplaceChild returns a copy of parent with old replaced by n. Only the
// given parent is copied.
func ReplaceChild(parent, old, n *Node) *Node {
	children := make([]*Node, len(parent.Children))
	for i, c := range parent.Children {
		if c == old {
			c = WithField(n, old.Field)
		}
		children[i] = c
	}
	return parent.WithChildren(children)
}

// ReplacePath rebuilds the nodes of path, a chain of nodes from a root down
// to a descendant, with the last one replaced by n. It returns the new root.
func ReplacePath(path []*Node, n *Node) *Node {
	for i := len(path) - 1; i > 0; i-- {
		n = ReplaceChild(path[i-1], path[i], n)
	}
	return n
}
