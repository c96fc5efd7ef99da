package sourcemap

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// DefaultNamespace prefixes relocated sources when Origin.Namespace is empty.
const DefaultNamespace = "liferay"

// Origin describes the project a source map belongs to.
type Origin struct {
	// Dir is the project directory sources are made relative to.
	Dir string
	// MapDir is the directory holding the map; scheme-less sources are
	// resolved against it.
	MapDir string

	Name      string
	Version   string
	Namespace string
}

func (o Origin) prefix() string {
	ns := o.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return fmt.Sprintf("%s:%s@%s/", ns, o.Name, o.Version)
}

// RelocateSources returns a copy of m whose sources are rewritten into
// loader coordinates, <namespace>:<name>@<version>/<path relative to the
// project>, with every ".." segment written as "[..]". Sources that are
// already in loader coordinates, or other opaque URLs, are kept, so relocating
// twice gives the same map. The number and order of sources never change.
func RelocateSources(m *Map, o Origin) (*Map, error) {
	if o.Name == "" || o.Version == "" {
		return nil, fmt.Errorf("relocating sources requires a project name and version")
	}

	out := *m
	out.SourceRoot = ""
	out.Sources = make([]string, len(m.Sources))
	for i, s := range m.Sources {
		if m.SourceRoot != "" && !HasScheme(s) && !path.IsAbs(s) {
			s = strings.TrimSuffix(m.SourceRoot, "/") + "/" + s
		}
		r, err := relocateSource(s, o)
		if err != nil {
			return nil, fmt.Errorf("source %d (%q): %w", i, m.Sources[i], err)
		}
		out.Sources[i] = r
	}
	return &out, nil
}

// Relocate applies RelocateSources to a decoded JSON source map, leaving
// every other member as it is.
func Relocate(doc any, o Origin) (any, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("source map must be a JSON object, got %T", doc)
	}
	raw, ok := obj["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("source map has no sources array")
	}

	m := &Map{Sources: make([]string, len(raw))}
	if root, ok := obj["sourceRoot"].(string); ok {
		m.SourceRoot = root
	}
	for i, s := range raw {
		str, ok := s.(string)
		if !ok {
			return nil, fmt.Errorf("source %d is %T, not a string", i, s)
		}
		m.Sources[i] = str
	}

	relocated, err := RelocateSources(m, o)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	delete(out, "sourceRoot")
	sources := make([]any, len(relocated.Sources))
	for i, s := range relocated.Sources {
		sources[i] = s
	}
	out["sources"] = sources
	return out, nil
}

func relocateSource(source string, o Origin) (string, error) {
	var abs, suffix string
	if !HasScheme(source) {
		p := source
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p, suffix = p[:i], p[i:]
		}
		p = filepath.FromSlash(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(o.MapDir, p)
		}
		abs = p
	} else {
		u, err := url.Parse(source)
		if err != nil {
			return "", err
		}
		// Opaque sources (liferay:proj@1.0.0/a.js, data:...) name no file
		// on disk; relocated ones stay as they are.
		if u.Opaque != "" {
			return source, nil
		}
		switch {
		case u.Scheme == "file":
			abs = filepath.FromSlash(u.Path)
		case strings.HasPrefix(u.Path, "//"):
			abs = filepath.FromSlash(path.Clean(u.Path))
		default:
			// Bundler schemes (webpack:///./src/a.js) name project files.
			abs = filepath.Join(o.Dir, filepath.FromSlash(strings.TrimPrefix(u.Path, "/")))
		}
		if u.RawQuery != "" {
			suffix += "?" + u.RawQuery
		}
		if u.Fragment != "" {
			suffix += "#" + u.EscapedFragment()
		}
	}

	rel, err := filepath.Rel(o.Dir, abs)
	if err != nil {
		return "", err
	}
	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segments {
		if seg == ".." {
			segments[i] = "[..]"
		}
	}
	return o.prefix() + strings.Join(segments, "/") + suffix, nil
}

// HasScheme reports whether s starts with a URL scheme. Single letters are
// Windows drive names, not schemes.
func HasScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i < 2 {
		return false
	}
	for j := 0; j < i; j++ {
		c := s[j]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
