package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jsadapt/internal/fsutil"
	"jsadapt/internal/jsast"
	"jsadapt/internal/logging"
	"jsadapt/internal/sourcemap"
)

// ReadJS parses a JavaScript file together with the map at path+".map",
// when there is one.
func ReadJS(ctx context.Context, path string) (*JSSource, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tree, err := jsast.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}

	js := &JSSource{Name: path, Tree: tree}
	m, err := sourcemap.Load(path + ".map")
	switch {
	case err == nil:
		js.Map = sourcemap.Absolutize(m, filepath.Dir(path))
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return js, nil
}

// Render prints js and builds the source map of the output file outFile.
// Map sources are relative to the directory of outFile.
func Render(js *JSSource, outFile string) (string, *sourcemap.Map, error) {
	code, mappings := jsast.PrintMapped(js.Tree)

	source, err := filepath.Abs(js.Name)
	if err != nil {
		return "", nil, err
	}
	m, err := sourcemap.Compose(filepath.Base(outFile), source, mappings, js.Map)
	if err != nil {
		return "", nil, err
	}
	outDir, err := filepath.Abs(filepath.Dir(outFile))
	if err != nil {
		return "", nil, err
	}
	return code, sourcemap.Relativize(m, outDir), nil
}

// WithMapURL appends a sourceMappingURL comment for mapFile to code.
func WithMapURL(code, mapFile string) string {
	if code != "" && !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return code + "//# sourceMappingURL=" + filepath.Base(mapFile) + "\n"
}

// TransformJSFile runs transforms over the JavaScript file src and writes
// the result to dst, with its source map next to it.
func TransformJSFile(ctx context.Context, src, dst string, transforms ...Transform) error {
	timer := logging.StartTimer(logging.CategoryTransform, "transform "+filepath.Base(src))
	defer timer.Stop()

	js, err := ReadJS(ctx, src)
	if err != nil {
		return err
	}
	out, err := Run(ctx, KindJS, transforms, js)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	code, m, err := Render(out.(*JSSource), dst)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	mapData, err := m.Marshal()
	if err != nil {
		return err
	}

	stage := fsutil.NewStage()
	defer stage.Discard()
	if err := stage.Add(dst, []byte(WithMapURL(code, dst+".map")), 0644); err != nil {
		return err
	}
	if err := stage.Add(dst+".map", mapData, 0644); err != nil {
		return err
	}
	return stage.Commit()
}

// TransformJSONFile runs transforms over the JSON file src and writes the
// result to dst.
//
// Object members keep the order they have in src; members added by the
// transforms follow, sorted.
func TransformJSONFile(ctx context.Context, src, dst string, transforms ...Transform) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	v, err := decodeJSON(raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", src, err)
	}
	order, err := JSONKeyOrder(raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", src, err)
	}
	out, err := Run(ctx, KindJSON, transforms, &JSONDocument{Value: v})
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	data, err := EncodeJSONOrdered(out.(*JSONDocument).Value, order)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := fsutil.WriteFileAtomic(dst, data, 0644); err != nil {
		return err
	}
	logging.Transform("wrote %s", dst)
	return nil
}

// TransformTextFile runs transforms over the text file src and writes the
// result to dst.
func TransformTextFile(ctx context.Context, src, dst string, transforms ...Transform) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	out, err := Run(ctx, KindText, transforms, &TextDocument{Text: string(data)})
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := fsutil.WriteFileAtomic(dst, []byte(out.(*TextDocument).Text), 0644); err != nil {
		return err
	}
	logging.Transform("wrote %s", dst)
	return nil
}

// ReadJSON decodes a JSON file. Numbers are kept as json.Number so that
// re-encoding does not alter them.
func ReadJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeJSON encodes v with two-space indentation, sorted object keys and a
// final newline.
func EncodeJSON(v any) ([]byte, error) {
	return encodeIndented(v)
}

// EncodeJSONOrdered is EncodeJSON for decoded JSON whose object members are
// written in the given order.
func EncodeJSONOrdered(v any, order KeyOrder) ([]byte, error) {
	return encodeIndented(orderedValue{v: v, order: order})
}

func encodeIndented(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
