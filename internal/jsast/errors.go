package jsast

import "fmt"

// ParseError reports source text the JavaScript grammar rejected, or a
// fragment that does not have the requested shape.
type ParseError struct {
	Name    string
	Line    int // one-based
	Column  int // one-based, UTF-16 code units
	Near    string
	Message string
}

func (e *ParseError) Error() string {
	loc := e.Name
	if loc == "" {
		loc = "<fragment>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	if e.Near != "" {
		return fmt.Sprintf("parse error at %s: %s near %q", loc, e.Message, e.Near)
	}
	return fmt.Sprintf("parse error at %s: %s", loc, e.Message)
}

// UnsupportedNodeError reports a node that cannot be moved inside a function
// wrapper, such as import or export declarations.
type UnsupportedNodeError struct {
	Kind Kind
	Type string
	Loc  Loc
}

func (e *UnsupportedNodeError) Error() string {
	name := e.Kind.String()
	if e.Kind == KindOther && e.Type != "" {
		name = e.Type
	}
	return fmt.Sprintf("found a %s node in Program at %d:%d but only statements are allowed",
		name, e.Loc.Line+1, e.Loc.Column+1)
}
