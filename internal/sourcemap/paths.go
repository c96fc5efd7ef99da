package sourcemap

import (
	"path"
	"path/filepath"
)

// Absolutize returns a copy of m whose scheme-less sources are absolute
// paths, resolved against dir (the directory holding the map) and the map's
// source root.
func Absolutize(m *Map, dir string) *Map {
	out := *m
	out.Sources = make([]string, len(m.Sources))
	for i, s := range m.Sources {
		if !HasScheme(s) {
			if m.SourceRoot != "" && !path.IsAbs(s) && !HasScheme(m.SourceRoot) {
				s = path.Join(m.SourceRoot, s)
			}
			if p := filepath.FromSlash(s); !filepath.IsAbs(p) {
				s = filepath.Join(dir, p)
			}
		}
		out.Sources[i] = s
	}
	if !HasScheme(m.SourceRoot) {
		out.SourceRoot = ""
	}
	return &out
}

// Relativize returns a copy of m whose absolute path sources are relative to
// dir, using forward slashes.
func Relativize(m *Map, dir string) *Map {
	out := *m
	out.Sources = make([]string, len(m.Sources))
	for i, s := range m.Sources {
		if !HasScheme(s) && filepath.IsAbs(s) {
			if rel, err := filepath.Rel(dir, s); err == nil {
				s = filepath.ToSlash(rel)
			}
		}
		out.Sources[i] = s
	}
	return &out
}
