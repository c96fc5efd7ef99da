package sourcemap

import "strings"

// Generator accumulates mappings and encodes them as a Map. Mappings must be
// added in output order.
type Generator struct {
	file    string
	sources []string
	content []*string
	index   map[string]int
	names   []string
	nameIdx map[string]int

	buf      strings.Builder
	line     int
	started  bool
	prevGen  int
	prevSrc  int
	prevLine int
	prevCol  int
	prevName int
}

// NewGenerator returns a generator for the named output file.
func NewGenerator(file string) *Generator {
	return &Generator{
		file:    file,
		index:   make(map[string]int),
		nameIdx: make(map[string]int),
	}
}

// AddSource registers a source and returns its index. Registering the same
// source twice returns the first index.
func (g *Generator) AddSource(source string) int {
	if i, ok := g.index[source]; ok {
		return i
	}
	i := len(g.sources)
	g.index[source] = i
	g.sources = append(g.sources, source)
	g.content = append(g.content, nil)
	return i
}

// SetSourceContent records the original text of a registered source.
func (g *Generator) SetSourceContent(source string, content *string) {
	g.content[g.AddSource(source)] = content
}

// AddMapping maps the generated position to a position in source src. Lines
// are zero-based. An empty name adds no name reference.
func (g *Generator) AddMapping(genLine, genCol, src, line, col int, name string) {
	for g.line < genLine {
		g.buf.WriteByte(';')
		g.line++
		g.prevGen = 0
		g.started = false
	}
	if g.started {
		g.buf.WriteByte(',')
	}
	g.started = true

	writeVLQ(&g.buf, genCol-g.prevGen)
	writeVLQ(&g.buf, src-g.prevSrc)
	writeVLQ(&g.buf, line-g.prevLine)
	writeVLQ(&g.buf, col-g.prevCol)
	g.prevGen, g.prevSrc, g.prevLine, g.prevCol = genCol, src, line, col

	if name != "" {
		idx, ok := g.nameIdx[name]
		if !ok {
			idx = len(g.names)
			g.nameIdx[name] = idx
			g.names = append(g.names, name)
		}
		writeVLQ(&g.buf, idx-g.prevName)
		g.prevName = idx
	}
}

// Map returns the encoded source map.
func (g *Generator) Map() *Map {
	m := &Map{
		Version:  3,
		File:     g.file,
		Sources:  append([]string(nil), g.sources...),
		Names:    append([]string(nil), g.names...),
		Mappings: g.buf.String(),
	}
	for _, c := range g.content {
		if c != nil {
			m.SourcesContent = append([]*string(nil), g.content...)
			break
		}
	}
	return m
}
