// Package match finds syntax nodes by shape and rebuilds trees with some of
// them replaced.
package match

import (
	"fmt"
	"strings"

	"jsadapt/internal/jsast"
)

// EnterFunc is called before a node's children are visited. Returning a
// non-nil node replaces n in the output tree and skips its subtree;
// returning n itself keeps it unchanged and also skips the subtree.
type EnterFunc func(n, parent *jsast.Node) (*jsast.Node, error)

// LeaveFunc is called after a node's children were visited. It is not called
// for nodes that Enter replaced or skipped.
type LeaveFunc func(n, parent *jsast.Node) error

// Visitor holds the traversal callbacks. Either may be nil.
type Visitor struct {
	Enter EnterFunc
	Leave LeaveFunc
}

// Replace walks tree in pre-order and returns a new tree with the
// replacements chosen by v. The input is never modified: nodes on the path
// to a replacement are copied and every untouched subtree is shared with the
// input. A replacement takes over the leading trivia and parent field of the
// node it replaces. The first error returned by a callback aborts the walk.
//
// The parent passed to callbacks is the parent in the input tree.
func Replace(tree *jsast.Node, v Visitor) (*jsast.Node, error) {
	return replace(tree, nil, v)
}

func replace(n, parent *jsast.Node, v Visitor) (*jsast.Node, error) {
	if v.Enter != nil {
		r, err := v.Enter(n, parent)
		if err != nil {
			return nil, err
		}
		if r == n {
			return n, nil
		}
		if r != nil {
			return substitute(n, r), nil
		}
	}

	out := n
	for i, c := range n.Children {
		nc, err := replace(c, n, v)
		if err != nil {
			return nil, err
		}
		if nc == c {
			continue
		}
		if out == n {
			children := make([]*jsast.Node, len(n.Children))
			copy(children, n.Children)
			out = n.WithChildren(children)
		}
		out.Children[i] = nc
	}

	if v.Leave != nil {
		if err := v.Leave(out, parent); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func substitute(old, r *jsast.Node) *jsast.Node {
	if r.FirstLeaf() != nil && r.LeadingTrivia() != old.LeadingTrivia() {
		r = jsast.WithLeading(r, old.LeadingTrivia())
	}
	return jsast.WithField(r, old.Field)
}

// Handlers dispatches Enter calls by node kind.
type Handlers map[jsast.Kind]EnterFunc

// Descend is the handler that keeps a node and visits its children.
func Descend(n, parent *jsast.Node) (*jsast.Node, error) {
	return nil, nil
}

func (h Handlers) check() error {
	for k, fn := range h {
		if !k.Valid() {
			return fmt.Errorf("no such node kind %s", k)
		}
		if fn == nil {
			return fmt.Errorf("nil handler for %s", k)
		}
	}
	return nil
}

// Visitor returns a visitor dispatching to h. Kinds missing from h are
// descended into. It fails if h holds a kind that does not exist.
func (h Handlers) Visitor() (Visitor, error) {
	if err := h.check(); err != nil {
		return Visitor{}, err
	}
	return Visitor{
		Enter: func(n, parent *jsast.Node) (*jsast.Node, error) {
			if fn, ok := h[n.Kind]; ok {
				return fn(n, parent)
			}
			return nil, nil
		},
	}, nil
}

// Exhaustive returns a visitor that has a handler for every node kind: the
// one in h, or else fallback. With a nil fallback, h must cover every kind
// in jsast.Kinds(). Nodes of a kind outside that set fail the walk.
func (h Handlers) Exhaustive(fallback EnterFunc) (Visitor, error) {
	if err := h.check(); err != nil {
		return Visitor{}, err
	}
	if fallback == nil {
		var missing []string
		for _, k := range jsast.Kinds() {
			if _, ok := h[k]; !ok {
				missing = append(missing, k.String())
			}
		}
		if len(missing) > 0 {
			return Visitor{}, fmt.Errorf("no handler for %s", strings.Join(missing, ", "))
		}
	}
	return Visitor{
		Enter: func(n, parent *jsast.Node) (*jsast.Node, error) {
			if fn, ok := h[n.Kind]; ok {
				return fn(n, parent)
			}
			if !n.Kind.Valid() {
				return nil, fmt.Errorf("unhandled node kind %s (%q)", n.Kind, n.Type)
			}
			return fallback(n, parent)
		},
	}, nil
}
