// Package transform composes pure rewrite passes over JavaScript, JSON and
// text documents and persists their results.
package transform

import (
	"context"
	"fmt"

	"jsadapt/internal/jsast"
	"jsadapt/internal/logging"
	"jsadapt/internal/sourcemap"
)

// Kind is the kind of document a transform accepts.
type Kind int

const (
	KindJS Kind = iota + 1
	KindJSON
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindJS:
		return "js"
	case KindJSON:
		return "json"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Document is one of *JSSource, *JSONDocument or *TextDocument.
type Document interface {
	Kind() Kind
}

// JSSource is a parsed JavaScript file.
type JSSource struct {
	// Name is the path the source was read from.
	Name string
	Tree *jsast.Node
	// Map is the source map of the file when it was produced by another
	// tool, with absolute path sources.
	Map *sourcemap.Map
}

func (*JSSource) Kind() Kind { return KindJS }

// WithTree returns a copy of s holding tree.
func (s *JSSource) WithTree(tree *jsast.Node) *JSSource {
	cp := *s
	cp.Tree = tree
	return &cp
}

// JSONDocument holds a decoded JSON value.
type JSONDocument struct {
	Value any
}

func (*JSONDocument) Kind() Kind { return KindJSON }

// TextDocument holds plain text.
type TextDocument struct {
	Text string
}

func (*TextDocument) Kind() Kind { return KindText }

// Transform is one step of a pipeline.
type Transform struct {
	Kind  Kind
	Name  string
	apply func(ctx context.Context, doc Document) (Document, error)
}

// JS returns a transform over JavaScript sources.
func JS(name string, fn func(ctx context.Context, src *JSSource) (*JSSource, error)) Transform {
	return Transform{
		Kind: KindJS,
		Name: name,
		apply: func(ctx context.Context, doc Document) (Document, error) {
			out, err := fn(ctx, doc.(*JSSource))
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// JSTree returns a transform that only rewrites the syntax tree.
func JSTree(name string, fn func(ctx context.Context, tree *jsast.Node) (*jsast.Node, error)) Transform {
	return JS(name, func(ctx context.Context, src *JSSource) (*JSSource, error) {
		tree, err := fn(ctx, src.Tree)
		if err != nil {
			return nil, err
		}
		return src.WithTree(tree), nil
	})
}

// JSON returns a transform over decoded JSON values.
func JSON(name string, fn func(ctx context.Context, v any) (any, error)) Transform {
	return Transform{
		Kind: KindJSON,
		Name: name,
		apply: func(ctx context.Context, doc Document) (Document, error) {
			v, err := fn(ctx, doc.(*JSONDocument).Value)
			if err != nil {
				return nil, err
			}
			return &JSONDocument{Value: v}, nil
		},
	}
}

// Text returns a transform over text.
func Text(name string, fn func(ctx context.Context, text string) (string, error)) Transform {
	return Transform{
		Kind: KindText,
		Name: name,
		apply: func(ctx context.Context, doc Document) (Document, error) {
			text, err := fn(ctx, doc.(*TextDocument).Text)
			if err != nil {
				return nil, err
			}
			return &TextDocument{Text: text}, nil
		},
	}
}

// KindMismatchError reports a document or transform of the wrong kind for a
// pipeline.
type KindMismatchError struct {
	Want Kind
	Got  Kind
	// Index is the position of the offending transform, or -1 when the
	// input document is at fault.
	Index int
	Name  string
}

func (e *KindMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("cannot run a %s pipeline on a %s document", e.Want, e.Got)
	}
	return fmt.Sprintf("transform %d (%s) works on %s documents, pipeline is %s", e.Index, e.Name, e.Got, e.Want)
}

// Run applies transforms to doc in order, feeding each result to the next.
// Every transform and the document must be of the given kind; this is
// checked before anything runs. The first failing transform aborts the run.
func Run(ctx context.Context, kind Kind, transforms []Transform, doc Document) (Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to transform")
	}
	if doc.Kind() != kind {
		return nil, &KindMismatchError{Want: kind, Got: doc.Kind(), Index: -1}
	}
	for i, t := range transforms {
		if t.Kind != kind || t.apply == nil {
			return nil, &KindMismatchError{Want: kind, Got: t.Kind, Index: i, Name: t.Name}
		}
	}

	for i, t := range transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logging.TransformDebug("%s transform %d/%d: %s", kind, i+1, len(transforms), t.Name)
		out, err := t.apply(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("transform %d (%s) failed: %w", i, t.Name, err)
		}
		doc = out
	}
	return doc, nil
}
