package adapt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"jsadapt/internal/config"
	"jsadapt/internal/jsast"
)

const requireEnvelope = `Liferay.Loader.require(
[{{range $i, $d := .Dependencies}}{{if $i}}, {{end}}{{json $d}}{{end}}],
function({{join .Variables ", "}}) {
}
);`

const defineEnvelope = `Liferay.Loader.define({{json .ModuleName}},
[{{range $i, $d := .Dependencies}}{{if $i}}, {{end}}{{json $d}}{{end}}],
function({{join .Variables ", "}}) {
}
);`

// EnvelopeData is what an envelope template is rendered with.
type EnvelopeData struct {
	ModuleName   string
	Dependencies []string
	Variables    []string
}

// Envelope is the loader call a bundle body is moved into.
type Envelope struct {
	name string
	tpl  *template.Template
}

var envelopeFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		data, err := json.Marshal(v)
		return string(data), err
	},
	"join": strings.Join,
}

// NewEnvelope parses an envelope template.
func NewEnvelope(name, text string) (*Envelope, error) {
	tpl, err := template.New(name).Funcs(envelopeFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, &TemplateShapeError{Envelope: name, Reason: err.Error()}
	}
	return &Envelope{name: name, tpl: tpl}, nil
}

// EnvelopeFor returns the envelope selected by the adaptation settings.
func EnvelopeFor(cfg config.AdaptConfig) (*Envelope, error) {
	switch cfg.Envelope {
	case config.EnvelopeRequire, "":
		return NewEnvelope(config.EnvelopeRequire, requireEnvelope)
	case config.EnvelopeDefine:
		return NewEnvelope(config.EnvelopeDefine, defineEnvelope)
	case config.EnvelopeCustom:
		return NewEnvelope(config.EnvelopeCustom, cfg.Template)
	}
	return nil, fmt.Errorf("unknown envelope %q", cfg.Envelope)
}

// Name returns the envelope's name.
func (e *Envelope) Name() string {
	return e.name
}

// Render returns the envelope text for data.
func (e *Envelope) Render(data EnvelopeData) (string, error) {
	var b strings.Builder
	if err := e.tpl.Execute(&b, data); err != nil {
		return "", &TemplateShapeError{Envelope: e.name, Reason: err.Error()}
	}
	return b.String(), nil
}

// Build renders and parses the envelope and returns its program together
// with the chain of nodes leading to the body of its function.
func (e *Envelope) Build(ctx context.Context, data EnvelopeData) (*jsast.Node, []*jsast.Node, error) {
	text, err := e.Render(data)
	if err != nil {
		return nil, nil, err
	}
	program, err := jsast.ParseFragment(ctx, text, jsast.FragmentProgram)
	if err != nil {
		return nil, nil, &TemplateShapeError{Envelope: e.name, Reason: err.Error()}
	}
	path, err := e.bodyPath(program)
	if err != nil {
		return nil, nil, err
	}
	return program, path, nil
}

// bodyPath checks the shape of an envelope program: one expression
// statement holding a call whose arguments contain exactly one function
// with a block body.
func (e *Envelope) bodyPath(program *jsast.Node) ([]*jsast.Node, error) {
	shape := func(format string, args ...any) error {
		return &TemplateShapeError{Envelope: e.name, Reason: fmt.Sprintf(format, args...)}
	}

	stmts := program.NamedChildren()
	if len(stmts) != 1 {
		return nil, shape("program body has %d statements, expected one", len(stmts))
	}
	stmt := stmts[0]
	if stmt.Kind != jsast.KindExpressionStatement {
		return nil, shape("program holds a %s, not an expression statement", stmt.Kind)
	}
	exprs := stmt.NamedChildren()
	if len(exprs) != 1 || exprs[0].Kind != jsast.KindCallExpression {
		return nil, shape("statement is not a call expression")
	}
	call := exprs[0]
	args := call.ChildByField("arguments")
	if args == nil || args.Kind != jsast.KindArguments {
		return nil, shape("call has no argument list")
	}

	var fn *jsast.Node
	count := 0
	for _, a := range args.NamedChildren() {
		if a.Kind == jsast.KindFunctionExpression || a.Kind == jsast.KindArrowFunctionExpression {
			fn = a
			count++
		}
	}
	if count != 1 {
		return nil, shape("call has %d function arguments, expected exactly one", count)
	}
	body, ok := jsast.FunctionBody(fn)
	if !ok {
		return nil, shape("function body is not a block statement")
	}
	return []*jsast.Node{program, stmt, call, args, fn, body}, nil
}

// Wrap moves the statements of program into the function body of the
// envelope and returns the resulting program. The envelope's own tokens map
// to the start of program.
func (e *Envelope) Wrap(ctx context.Context, program *jsast.Node, data EnvelopeData) (*jsast.Node, error) {
	tpl, _, err := e.Build(ctx, data)
	if err != nil {
		return nil, err
	}
	stmts, err := jsast.ProgramStatements(program)
	if err != nil {
		return nil, err
	}

	tpl = jsast.Relocate(tpl, program)
	path, err := e.bodyPath(tpl)
	if err != nil {
		return nil, err
	}
	body, err := jsast.WithBlockBody(path[len(path)-1], stmts, "\n")
	if err != nil {
		return nil, &TemplateShapeError{Envelope: e.name, Reason: err.Error()}
	}

	out := jsast.ReplacePath(path, body)
	out.Trailing = program.Trailing
	return out, nil
}
