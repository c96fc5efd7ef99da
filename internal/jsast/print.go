package jsast

import (
	"strings"
	"unicode/utf8"
)

// Mapping links a position in printed output to the position of the token in
// the parsed file. Lines are zero-based, columns are UTF-16 code units.
type Mapping struct {
	GenLine   int
	GenColumn int
	Line      int
	Column    int
}

// Print renders n as source text.
func Print(n *Node) string {
	p := &printer{}
	p.node(n)
	return p.buf.String()
}

// PrintMapped renders n and returns one mapping per non-synthetic token, in
// output order.
func PrintMapped(n *Node) (string, []Mapping) {
	p := &printer{mapped: true}
	p.node(n)
	return p.buf.String(), p.mappings
}

// Source returns the text of n without the trivia before its first token.
func Source(n *Node) string {
	if leaf := n.FirstLeaf(); leaf != nil && leaf.Leading != "" {
		n = WithLeading(n, "")
	}
	return Print(n)
}

type printer struct {
	buf      strings.Builder
	line     int
	col      int
	last     byte
	mapped   bool
	mappings []Mapping
}

func (p *printer) node(n *Node) {
	if n.IsLeaf() {
		p.leaf(n)
	} else {
		for _, c := range n.Children {
			p.node(c)
		}
	}
	p.write(n.Trailing)
}

func (p *printer) leaf(n *Node) {
	leading := n.Leading
	if leading == "" && p.fuses(n.Text) {
		leading = " "
	}
	p.write(leading)

	if p.mapped && n.Text != "" && !n.Loc.Synthetic {
		p.mappings = append(p.mappings, Mapping{
			GenLine:   p.line,
			GenColumn: p.col,
			Line:      n.Loc.Line,
			Column:    n.Loc.Column,
		})
	}
	p.write(n.Text)
}

// fuses reports whether text written right after the current output would
// merge with the previous token into a different one.
func (p *printer) fuses(text string) bool {
	if p.buf.Len() == 0 || text == "" {
		return false
	}
	first := text[0]
	switch {
	case isIdentByte(p.last) && isIdentByte(first):
		return true
	case p.last == '+' && first == '+', p.last == '-' && first == '-':
		return true
	case p.last == '/' && (first == '/' || first == '*'):
		return true
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

func (p *printer) write(s string) {
	if s == "" {
		return
	}
	p.buf.WriteString(s)
	p.last = s[len(s)-1]

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		switch {
		case r == '\n':
			p.line++
			p.col = 0
		case r >= 0x10000:
			p.col += 2
		default:
			p.col++
		}
		s = s[size:]
	}
}
