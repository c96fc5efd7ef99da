package sourcemap

import (
	"encoding/json"
	"strings"
	"testing"

	"jsadapt/internal/jsast"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var proj = Origin{
	Dir:     "/proj",
	MapDir:  "/proj/build",
	Name:    "proj",
	Version: "1.0.0",
}

func TestRelocateSources(t *testing.T) {
	m := &Map{
		Version: 3,
		Sources: []string{
			"file:///proj/src/a.js",
			"file:///proj/../lib/b.js",
		},
		Mappings: "AAAA",
	}

	out, err := RelocateSources(m, proj)
	require.NoError(t, err)

	want := []string{
		"liferay:proj@1.0.0/src/a.js",
		"liferay:proj@1.0.0/[..]/lib/b.js",
	}
	if diff := cmp.Diff(want, out.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "AAAA", out.Mappings)
	// The input map is not modified.
	assert.Equal(t, "file:///proj/src/a.js", m.Sources[0])
}

func TestRelocateSourceForms(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"bundler scheme", "webpack:///./src/index.js", "liferay:proj@1.0.0/src/index.js"},
		{"bundler scheme with host", "webpack://proj/./src/index.js", "liferay:proj@1.0.0/src/index.js"},
		{"double slash path", "webpack:////proj/node_modules/x/i.js", "liferay:proj@1.0.0/node_modules/x/i.js"},
		{"relative to map", "../src/a.js", "liferay:proj@1.0.0/src/a.js"},
		{"absolute path", "/other/x.js", "liferay:proj@1.0.0/[..]/other/x.js"},
		{"query kept", "webpack:///./src/a.vue?vue&type=script", "liferay:proj@1.0.0/src/a.vue?vue&type=script"},
		{"fragment kept", "../src/a.js#frag", "liferay:proj@1.0.0/src/a.js#frag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := relocateSource(tt.source, proj)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelocateSourcesPreservesCountAndOrder(t *testing.T) {
	sources := []string{"b.js", "a.js", "b.js", "webpack:///./c.js", "../../../../x.js"}
	out, err := RelocateSources(&Map{Version: 3, Sources: sources}, Origin{
		Dir: "/p", MapDir: "/p", Name: "n", Version: "2.0.0", Namespace: "custom",
	})
	require.NoError(t, err)
	require.Len(t, out.Sources, len(sources))
	assert.Equal(t, "custom:n@2.0.0/b.js", out.Sources[0])
	assert.Equal(t, "custom:n@2.0.0/a.js", out.Sources[1])
	assert.Equal(t, out.Sources[0], out.Sources[2])
	assert.Equal(t, "custom:n@2.0.0/c.js", out.Sources[3])
	assert.Equal(t, "custom:n@2.0.0/[..]/x.js", out.Sources[4])
}

func TestRelocateSourcesIsIdempotent(t *testing.T) {
	m := &Map{
		Version: 3,
		Sources: []string{"file:///proj/src/a.js", "file:///proj/../lib/b.js", "data:text/plain,x"},
	}
	once, err := RelocateSources(m, proj)
	require.NoError(t, err)
	twice, err := RelocateSources(once, proj)
	require.NoError(t, err)

	want := []string{
		"liferay:proj@1.0.0/src/a.js",
		"liferay:proj@1.0.0/[..]/lib/b.js",
		"data:text/plain,x",
	}
	if diff := cmp.Diff(want, twice.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}

	other, err := RelocateSources(&Map{Version: 3, Sources: []string{"custom:dep@2.0.0/x.js"}}, proj)
	require.NoError(t, err)
	assert.Equal(t, []string{"custom:dep@2.0.0/x.js"}, other.Sources)
}

func TestRelocateSourcesAppliesSourceRoot(t *testing.T) {
	out, err := RelocateSources(&Map{Version: 3, SourceRoot: "../src/", Sources: []string{"a.js"}}, proj)
	require.NoError(t, err)
	assert.Equal(t, []string{"liferay:proj@1.0.0/src/a.js"}, out.Sources)
	assert.Empty(t, out.SourceRoot)
}

func TestRelocateSourcesRequiresIdentity(t *testing.T) {
	_, err := RelocateSources(&Map{Version: 3}, Origin{Dir: "/p"})
	assert.Error(t, err)
}

func TestRelocateDocument(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{
		"version": 3,
		"file": "main.js",
		"sources": ["file:///proj/src/a.js"],
		"x_google_ignoreList": [0],
		"mappings": ";AAAA"
	}`), &doc))

	out, err := Relocate(doc, proj)
	require.NoError(t, err)

	obj := out.(map[string]any)
	assert.Equal(t, []any{"liferay:proj@1.0.0/src/a.js"}, obj["sources"])
	assert.Equal(t, "main.js", obj["file"])
	assert.Equal(t, []any{float64(0)}, obj["x_google_ignoreList"])
	assert.Equal(t, []any{"file:///proj/src/a.js"}, doc.(map[string]any)["sources"])

	_, err = Relocate([]any{}, proj)
	assert.Error(t, err)
	_, err = Relocate(map[string]any{"sources": []any{1}}, proj)
	assert.Error(t, err)
}

func TestVLQ(t *testing.T) {
	tests := []struct {
		v    int
		want string
	}{
		{0, "A"},
		{1, "C"},
		{-1, "D"},
		{15, "e"},
		{16, "gB"},
		{-16, "hB"},
		{1000, "w+B"},
	}
	for _, tt := range tests {
		var b strings.Builder
		writeVLQ(&b, tt.v)
		assert.Equal(t, tt.want, b.String(), "value %d", tt.v)
	}
}

func TestGenerator(t *testing.T) {
	g := NewGenerator("out.js")
	a := g.AddSource("a.js")
	b := g.AddSource("b.js")
	assert.Equal(t, a, g.AddSource("a.js"))

	g.AddMapping(0, 0, a, 0, 0, "")
	g.AddMapping(0, 4, a, 0, 4, "foo")
	g.AddMapping(2, 2, b, 10, 1, "foo")

	m := g.Map()
	assert.Equal(t, 3, m.Version)
	assert.Equal(t, "out.js", m.File)
	assert.Equal(t, []string{"a.js", "b.js"}, m.Sources)
	assert.Equal(t, []string{"foo"}, m.Names)
	assert.Equal(t, "AAAA,IAAIA;;ECUHA", m.Mappings)
	assert.Nil(t, m.SourcesContent)
}

func TestComposeWithoutInput(t *testing.T) {
	mappings := []jsast.Mapping{
		{GenLine: 0, GenColumn: 0, Line: 3, Column: 2},
		{GenLine: 1, GenColumn: 4, Line: 3, Column: 6},
	}
	m, err := Compose("out.js", "in.js", mappings, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"in.js"}, m.Sources)
	assert.Equal(t, "AAGE;IAAI", m.Mappings)
}

func TestComposeThroughInput(t *testing.T) {
	content := "let answer = 42;"
	// Generated line 0 column 0 comes from src/a.js line 1 column 0, and
	// column 4 from src/a.js line 1 column 4.
	input := &Map{
		Version:        3,
		Sources:        []string{"src/a.js", "src/unused.js"},
		SourcesContent: []*string{&content, nil},
		Names:          []string{},
		Mappings:       "AACA,IAAI",
	}
	printed := []jsast.Mapping{
		{GenLine: 2, GenColumn: 8, Line: 0, Column: 0},
		{GenLine: 2, GenColumn: 12, Line: 0, Column: 4},
		{GenLine: 3, GenColumn: 0, Line: 7, Column: 0},
	}

	m, err := Compose("out.js", "bundle.js", printed, input)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.js", "src/unused.js"}, m.Sources)
	require.Len(t, m.SourcesContent, 2)
	assert.Equal(t, content, *m.SourcesContent[0])
	assert.Equal(t, ";;QACA,IAAI", m.Mappings)
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`{"version":3,"sources":["a.js"],"names":[],"mappings":"AAAA"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js"}, m.Sources)

	_, err = Parse([]byte(`{"version":2}`))
	assert.Error(t, err)
	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)

	data, err := (&Map{Version: 3}).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":3,"sources":[],"names":[],"mappings":""}`, string(data))
}

func TestAbsolutizeRelativize(t *testing.T) {
	m := &Map{Version: 3, SourceRoot: "src", Sources: []string{"a.js", "/abs/b.js", "webpack:///./c.js"}}

	abs := Absolutize(m, "/proj/build")
	assert.Equal(t, []string{"/proj/build/src/a.js", "/abs/b.js", "webpack:///./c.js"}, abs.Sources)
	assert.Empty(t, abs.SourceRoot)

	rel := Relativize(abs, "/proj/out")
	assert.Equal(t, []string{"../build/src/a.js", "../../abs/b.js", "webpack:///./c.js"}, rel.Sources)
	assert.Equal(t, "src", m.SourceRoot)
}

func TestHasScheme(t *testing.T) {
	assert.True(t, HasScheme("file:///a"))
	assert.True(t, HasScheme("webpack://x"))
	assert.False(t, HasScheme("C:\\a"))
	assert.False(t, HasScheme("./a:b"))
	assert.False(t, HasScheme("a.js"))
}
