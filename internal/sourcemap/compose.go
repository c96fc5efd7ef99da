package sourcemap

import (
	"fmt"
	"path"

	"jsadapt/internal/jsast"
	"jsadapt/internal/logging"

	gosourcemap "github.com/go-sourcemap/sourcemap"
)

// Compose builds the map of a printed tree. Without an input map every
// mapping points into source, the file that was parsed. With one, each
// mapping is traced through it to the original sources, and positions the
// input map does not cover are dropped.
func Compose(file, source string, mappings []jsast.Mapping, input *Map) (*Map, error) {
	g := NewGenerator(file)

	if input == nil {
		idx := g.AddSource(source)
		for _, m := range mappings {
			g.AddMapping(m.GenLine, m.GenColumn, idx, m.Line, m.Column, "")
		}
		return g.Map(), nil
	}

	data, err := input.Marshal()
	if err != nil {
		return nil, err
	}
	consumer, err := gosourcemap.Parse("", data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input source map of %s: %w", source, err)
	}

	// Keep the input's source order so that relocation sees the same list.
	for i, s := range input.Sources {
		if input.SourceRoot != "" {
			s = path.Join(input.SourceRoot, s)
		}
		g.AddSource(s)
		if i < len(input.SourcesContent) {
			g.SetSourceContent(s, input.SourcesContent[i])
		}
	}

	dropped := 0
	for _, m := range mappings {
		src, name, line, col, ok := consumer.Source(m.Line+1, m.Column)
		if !ok {
			dropped++
			continue
		}
		g.AddMapping(m.GenLine, m.GenColumn, g.AddSource(src), line-1, col, name)
	}
	switch {
	case dropped > 0 && dropped == len(mappings):
		logging.SourceMapWarn("%s: the input map covers none of its %d tokens", source, len(mappings))
	case dropped > 0:
		logging.SourceMapDebug("%s: %d of %d tokens not covered by the input map", source, dropped, len(mappings))
	}
	return g.Map(), nil
}
