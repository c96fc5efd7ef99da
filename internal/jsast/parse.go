package jsast

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"jsadapt/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// FragmentKind selects how ParseFragment interprets its input.
type FragmentKind int

const (
	FragmentProgram FragmentKind = iota
	FragmentStatement
	FragmentExpression
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentProgram:
		return "program"
	case FragmentStatement:
		return "statement"
	case FragmentExpression:
		return "expression"
	}
	return fmt.Sprintf("FragmentKind(%d)", int(k))
}

// Parse parses a JavaScript file. Node positions refer to src, so a tree
// printed with PrintMapped maps back to it.
func Parse(ctx context.Context, name string, src []byte) (*Node, error) {
	start := time.Now()
	logging.ParseDebug("parsing %s (%d bytes)", filepath.Base(name), len(src))

	program, err := parse(ctx, name, src, false)
	if err != nil {
		return nil, err
	}

	logging.ParseDebug("parsed %s in %v", filepath.Base(name), time.Since(start))
	return program, nil
}

// ParseFragment parses a snippet of code as a whole program, a single
// statement, or a single expression. The returned nodes are synthetic: they
// carry the fragment's own positions and produce no source-map mappings until
// relocated onto a real node. Surrounding whitespace of the fragment is
// dropped.
func ParseFragment(ctx context.Context, text string, kind FragmentKind) (*Node, error) {
	program, err := parse(ctx, "", []byte(text), true)
	if err != nil {
		return nil, err
	}
	program.Trailing = ""
	if program.FirstLeaf() != nil {
		program = WithLeading(program, "")
	}

	if kind == FragmentProgram {
		return program, nil
	}

	stmts := program.NamedChildren()
	if len(stmts) != 1 {
		return nil, &ParseError{
			Message: fmt.Sprintf("expected a single %s, found %d statements", kind, len(stmts)),
			Near:    abbreviate(text),
		}
	}
	stmt := WithLeading(WithField(stmts[0], ""), "")
	if kind == FragmentStatement {
		return stmt, nil
	}

	exprs := stmt.NamedChildren()
	if stmt.Kind != KindExpressionStatement || len(exprs) != 1 {
		return nil, &ParseError{
			Message: fmt.Sprintf("expected an expression, found %s", stmt.Kind),
			Near:    abbreviate(text),
		}
	}
	return WithLeading(WithField(exprs[0], ""), ""), nil
}

func parse(ctx context.Context, name string, src []byte, synthetic bool) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse of %s canceled: %w", displayName(name), err)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse of %s failed: %w", displayName(name), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(name, root, src)
	}

	c := &converter{src: src, cols: newColumnIndex(src), synthetic: synthetic}
	program := c.convert(root, "")
	program.Trailing = string(src[c.prev:])
	return program, nil
}

// converter turns a tree-sitter tree into Nodes. Tokens are visited in source
// order, which keeps column computation linear even on single-line bundles.
type converter struct {
	src       []byte
	cols      *columnIndex
	prev      int
	synthetic bool
}

func (c *converter) convert(n *sitter.Node, field string) *Node {
	node := &Node{
		Type:  n.Type(),
		Field: field,
		Named: n.IsNamed(),
	}
	start, end := int(n.StartByte()), int(n.EndByte())

	if n.ChildCount() > 0 {
		cursor := sitter.NewTreeCursor(n)
		defer cursor.Close()

		node.Children = make([]*Node, 0, n.ChildCount())
		if cursor.GoToFirstChild() {
			for {
				node.Children = append(node.Children, c.convert(cursor.CurrentNode(), cursor.CurrentFieldName()))
				if !cursor.GoToNextSibling() {
					break
				}
			}
		}
	}

	if len(node.Children) == 0 {
		if start < c.prev {
			start = c.prev
		}
		node.Leading = string(c.src[c.prev:start])
		node.Text = string(c.src[start:end])
		c.prev = end

		line, col := c.cols.position(start)
		endLine, endCol := c.cols.position(end)
		node.Loc = Loc{
			Start: start, End: end,
			Line: line, Column: col,
			EndLine: endLine, EndColumn: endCol,
			Synthetic: c.synthetic,
		}
	} else {
		first, last := node.Children[0].Loc, node.Children[len(node.Children)-1].Loc
		node.Loc = Loc{
			Start: start, End: end,
			Line: first.Line, Column: first.Column,
			EndLine: last.EndLine, EndColumn: last.EndColumn,
			Synthetic: c.synthetic,
		}
	}

	node.Kind = classify(node.Type, node.Named, node.Children)
	return node
}

func syntaxError(name string, root *sitter.Node, src []byte) error {
	bad := findError(root)
	if bad == nil {
		return &ParseError{Name: name, Message: "invalid syntax"}
	}

	start := int(bad.StartByte())
	line, col := newColumnIndex(src).position(start)
	msg := "unexpected input"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Type())
	}

	end := int(bad.EndByte())
	if end > start+40 {
		end = start + 40
	}
	return &ParseError{
		Name:    name,
		Line:    line + 1,
		Column:  col + 1,
		Near:    string(src[start:end]),
		Message: msg,
	}
}

// findError returns the first ERROR or MISSING node in source order.
func findError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			if bad := findError(child); bad != nil {
				return bad
			}
		}
	}
	return nil
}

// columnIndex converts byte offsets to (line, UTF-16 column). Queries with
// non-decreasing offsets on the same line resume from the previous answer.
type columnIndex struct {
	src        []byte
	lineStarts []int

	lastLine int
	lastOff  int
	lastCol  int
}

func newColumnIndex(src []byte) *columnIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &columnIndex{src: src, lineStarts: starts, lastLine: -1}
}

func (x *columnIndex) position(off int) (line, col int) {
	line = sort.Search(len(x.lineStarts), func(i int) bool { return x.lineStarts[i] > off }) - 1
	from := x.lineStarts[line]
	if line == x.lastLine && off >= x.lastOff {
		from, col = x.lastOff, x.lastCol
	}
	col += utf16Len(x.src[from:off])
	x.lastLine, x.lastOff, x.lastCol = line, off, col
	return line, col
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		b = b[size:]
	}
	return n
}

func displayName(name string) string {
	if name == "" {
		return "fragment"
	}
	return name
}

func abbreviate(s string) string {
	const limit = 60
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
