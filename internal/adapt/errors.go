package adapt

import "fmt"

// TemplateShapeError reports an envelope that does not parse to a single
// call statement with exactly one block-bodied function argument.
type TemplateShapeError struct {
	Envelope string
	Reason   string
}

func (e *TemplateShapeError) Error() string {
	return fmt.Sprintf("envelope %s is malformed: %s", e.Envelope, e.Reason)
}

// DynamicRequireError reports a require marker call whose argument is not a
// string literal. The call is left as it is.
type DynamicRequireError struct {
	File   string
	Line   int // one-based
	Column int // one-based
	Source string
}

func (e *DynamicRequireError) Error() string {
	return fmt.Sprintf("%s:%d:%d: dynamic require %s cannot be resolved at build time", e.File, e.Line, e.Column, e.Source)
}
