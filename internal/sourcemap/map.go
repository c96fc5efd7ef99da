// Package sourcemap models version 3 source maps, generates them for printed
// syntax trees and rewrites their source references for the loader.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"os"
)

// Map is a version 3 source map.
type Map struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// Parse decodes a source map.
func Parse(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid source map: %w", err)
	}
	if m.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", m.Version)
	}
	return &m, nil
}

// Load reads and decodes a source map file.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source map: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Marshal encodes m.
func (m *Map) Marshal() ([]byte, error) {
	cp := *m
	if cp.Sources == nil {
		cp.Sources = []string{}
	}
	if cp.Names == nil {
		cp.Names = []string{}
	}
	return json.Marshal(&cp)
}
