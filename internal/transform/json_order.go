package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyOrder records the member order of every object in a JSON document,
// keyed by the object's JSON pointer ("" for the root).
type KeyOrder map[string][]string

// JSONKeyOrder reads the member order of the objects in data.
func JSONKeyOrder(data []byte) (KeyOrder, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	order := KeyOrder{}
	if err := walkKeyOrder(dec, "", order); err != nil {
		return nil, err
	}
	return order, nil
}

func walkKeyOrder(dec *json.Decoder, path string, order KeyOrder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case json.Delim('{'):
		var keys []string
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := kt.(string)
			if !ok {
				return fmt.Errorf("object key at %q is %T", path, kt)
			}
			keys = append(keys, key)
			if err := walkKeyOrder(dec, path+"/"+escapePointer(key), order); err != nil {
				return err
			}
		}
		order[path] = keys
		_, err = dec.Token()
		return err
	case json.Delim('['):
		for i := 0; dec.More(); i++ {
			if err := walkKeyOrder(dec, path+"/"+strconv.Itoa(i), order); err != nil {
				return err
			}
		}
		_, err = dec.Token()
		return err
	}
	return nil
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(key string) string {
	return pointerEscaper.Replace(key)
}

// keys returns the keys of obj: those recorded for path first, in their
// recorded order, then any others sorted.
func (o KeyOrder) keys(path string, obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	seen := make(map[string]bool, len(obj))
	for _, k := range o[path] {
		if _, ok := obj[k]; ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range obj {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// orderedValue marshals decoded JSON with object members in KeyOrder order.
type orderedValue struct {
	v     any
	path  string
	order KeyOrder
}

func (o orderedValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	switch v := o.v.(type) {
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range o.order.keys(o.path, v) {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := marshalPlain(k)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := orderedValue{v: v[k], path: o.path + "/" + escapePointer(k), order: o.order}.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			val, err := orderedValue{v: item, path: o.path + "/" + strconv.Itoa(i), order: o.order}.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte(']')
	default:
		return marshalPlain(v)
	}
	return buf.Bytes(), nil
}

// marshalPlain is json.Marshal without HTML escaping.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
