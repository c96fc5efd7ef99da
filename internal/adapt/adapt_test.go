package adapt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jsadapt/internal/config"
	"jsadapt/internal/jsast"
	"jsadapt/internal/transform"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func parseJS(t *testing.T, src string) *transform.JSSource {
	t.Helper()
	tree, err := jsast.Parse(context.Background(), "bundle.js", []byte(src))
	require.NoError(t, err)
	return &transform.JSSource{Name: "bundle.js", Tree: tree}
}

func newStep(t *testing.T, mutate func(*config.AdaptConfig)) *Step {
	t.Helper()
	cfg := config.DefaultAdaptConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewStep(cfg, "proj@1.0.0/main.bundle", nil)
	require.NoError(t, err)
	return s
}

func TestAliasTable(t *testing.T) {
	table := NewAliasTable()
	a := table.Add("pkg-a/mod", "pkg-a/mod")
	again := table.Add("pkg-a/mod", "ignored")
	b := table.Add("pkg-b/mod", "pkg-b/mod")

	assert.Equal(t, a, again)
	assert.Equal(t, "mod_0", a.Alias)
	assert.Equal(t, "mod_1", b.Alias)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"pkg-a/mod", "pkg-b/mod"}, table.ModuleIDs())
	assert.Equal(t, []string{"mod_0", "mod_1"}, table.Aliases())

	_, ok := table.Lookup("pkg-c")
	assert.False(t, ok)
}

func TestSanitizedName(t *testing.T) {
	tests := []struct {
		request string
		want    string
	}{
		{"react", "react"},
		{"react-dom/client", "client"},
		{"provider$lodash/fp/map", "map"},
		{"@scope/pkg", "pkg"},
		{"@provider$scope/pkg-x", "pkg_x"},
		{"./lib/util.js", "util_js"},
		{"dir/", "dir"},
		{"ümlaut", "_mlaut"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizedName(tt.request), tt.request)
	}
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "prov$pkg/x", AddNamespace("pkg/x", "prov"))
	assert.Equal(t, "@prov$scope/pkg", AddNamespace("@scope/pkg", "prov"))
	assert.Equal(t, "pkg/x", RemoveNamespace("prov$pkg/x"))
	assert.Equal(t, "@scope/pkg", RemoveNamespace("@prov$scope/pkg"))
	assert.Equal(t, "pkg/a$b", RemoveNamespace("pkg/a$b"))

	assert.Equal(t, "@scope/pkg", PackageName("@scope/pkg/x/y"))
	assert.Equal(t, "pkg", PackageName("pkg/x"))
	assert.Equal(t, "", PackageName("./local"))
	assert.Equal(t, "", PackageName("/abs"))

	resolve := ImportsResolver(map[string]config.ImportSpec{
		"react":        {Provider: "react-provider", Version: "1.0.0"},
		"@clay/button": {Provider: "clay-provider", Version: "2.0.0"},
	})
	assert.Equal(t, "react-provider$react", resolve("react"))
	assert.Equal(t, "react-provider$react/jsx-runtime", resolve("react/jsx-runtime"))
	assert.Equal(t, "@clay-provider$clay/button", resolve("@clay/button"))
	assert.Equal(t, "lodash", resolve("lodash"))
	assert.Equal(t, "./x", resolve("./x"))
}

func TestAdaptWrapsBundle(t *testing.T) {
	src := parseJS(t, "__REQUIRE__('pkg-a/mod');\n__REQUIRE__('pkg-a/mod');\n__REQUIRE__('pkg-b/mod');\n")

	res, err := newStep(t, nil).Adapt(context.Background(), src)
	require.NoError(t, err)

	want := "Liferay.Loader.require(\n" +
		"[\"pkg-a/mod\", \"pkg-b/mod\"],\n" +
		"function(mod_0, mod_1) {\n" +
		"mod_0;\n" +
		"mod_0;\n" +
		"mod_1;\n" +
		"}\n" +
		");\n"
	if diff := cmp.Diff(want, jsast.Print(res.Source.Tree)); diff != "" {
		t.Errorf("adapted bundle mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []ModuleReference{
		{Request: "pkg-a/mod", ModuleID: "pkg-a/mod", Alias: "mod_0"},
		{Request: "pkg-b/mod", ModuleID: "pkg-b/mod", Alias: "mod_1"},
	}, res.Aliases.References())
	assert.Empty(t, res.Warnings)
}

func TestAdaptIsDeterministic(t *testing.T) {
	const code = "var a = __REQUIRE__('x/a'), b = __REQUIRE__('y/b');\nfunction f() { return __REQUIRE__('x/a'); }\n"
	step := newStep(t, nil)

	first, err := step.Adapt(context.Background(), parseJS(t, code))
	require.NoError(t, err)
	second, err := step.Adapt(context.Background(), parseJS(t, code))
	require.NoError(t, err)

	assert.Equal(t, jsast.Print(first.Source.Tree), jsast.Print(second.Source.Tree))
	assert.Equal(t, []string{"a_0", "b_1"}, first.Aliases.Aliases())
}

func TestAdaptLeavesInputUntouched(t *testing.T) {
	const code = "var a = __REQUIRE__('a');\n"
	src := parseJS(t, code)

	_, err := newStep(t, nil).Adapt(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, code, jsast.Print(src.Tree))
}

func TestAdaptMapsAliasesToCalls(t *testing.T) {
	res, err := newStep(t, nil).Adapt(context.Background(), parseJS(t, "x = __REQUIRE__('a');\n"))
	require.NoError(t, err)

	code, mappings := jsast.PrintMapped(res.Source.Tree)
	require.Contains(t, code, "x = a_0;")

	var found bool
	for _, m := range mappings {
		if m.Line == 0 && m.Column == 4 {
			found = true
		}
	}
	assert.True(t, found, "alias token maps to the replaced call")
}

func TestAdaptDefineEnvelope(t *testing.T) {
	step := newStep(t, func(c *config.AdaptConfig) { c.Envelope = config.EnvelopeDefine })

	res, err := step.Adapt(context.Background(), parseJS(t, "__REQUIRE__('react');\n"))
	require.NoError(t, err)
	assert.Contains(t, jsast.Print(res.Source.Tree),
		"Liferay.Loader.define(\"proj@1.0.0/main.bundle\",\n[\"react\"],\nfunction(react_0) {\nreact_0;\n}\n);")
}

func TestAdaptRejectsModuleSyntax(t *testing.T) {
	_, err := newStep(t, nil).Adapt(context.Background(), parseJS(t, "export default 1;\n"))

	var unsupported *jsast.UnsupportedNodeError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, jsast.KindExportDefaultDeclaration, unsupported.Kind)
}

func TestAdaptMalformedEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"two functions", "Liferay.Loader.require([], function(a) {\n}, function(b) {\n});"},
		{"no function", "Liferay.Loader.require([]);"},
		{"two statements", "a();\nb(function() {\n});"},
		{"not a call", "var x = function() {\n};"},
		{"expression body", "f(() => 1);"},
		{"syntax error", "f(function() {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := newStep(t, func(c *config.AdaptConfig) {
				c.Envelope = config.EnvelopeCustom
				c.Template = tt.template
			})
			_, err := step.Adapt(context.Background(), parseJS(t, "a();\n"))
			var shape *TemplateShapeError
			assert.True(t, errors.As(err, &shape), "got %v", err)
		})
	}
}

func TestDynamicRequires(t *testing.T) {
	const code = "var a = __REQUIRE__(name);\nvar b = __REQUIRE__('b');\n"

	res, err := newStep(t, nil).Adapt(context.Background(), parseJS(t, code))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, 1, w.Line)
	assert.Equal(t, 9, w.Column)
	assert.Equal(t, "__REQUIRE__(name)", w.Source)

	out := jsast.Print(res.Source.Tree)
	assert.Contains(t, out, "var a = __REQUIRE__(name);")
	assert.Contains(t, out, "var b = b_0;")

	failing := newStep(t, func(c *config.AdaptConfig) { c.DynamicRequires = config.DynamicRequiresFail })
	_, err = failing.Adapt(context.Background(), parseJS(t, code))
	var dyn *DynamicRequireError
	assert.True(t, errors.As(err, &dyn))
}

func TestScanIgnoresOtherCalls(t *testing.T) {
	src := parseJS(t, "require('a'); x.__REQUIRE__('b'); __REQUIRE__('c', 1); __REQUIRE__();\n")
	table, dynamic := Scan(src.Tree, src.Name, "__REQUIRE__", func(r string) string { return r })
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, dynamic)
}

func TestStepExportsPortletFunction(t *testing.T) {
	step := newStep(t, func(c *config.AdaptConfig) {
		c.Envelope = config.EnvelopeDefine
		c.RootElementID = "root"
		c.StaticURLs = []string{"/static/logo.png"}
	})
	require.True(t, step.Exports)

	res, err := step.Adapt(context.Background(),
		parseJS(t, "document.getElementById('root');\nvar u = '/static/logo.png';\n"))
	require.NoError(t, err)

	want := "Liferay.Loader.define(\"proj@1.0.0/main.bundle\",\n" +
		"[\"module\"],\n" +
		"function(module) {\n" +
		"module.exports = function(_LIFERAY_PARAMS_, _ADAPT_RT_) {\n" +
		"document.getElementById(_LIFERAY_PARAMS_.portletElementId);\n" +
		"var u = _ADAPT_RT_.adaptStaticURL(\"/static/logo.png\");\n" +
		"};\n" +
		"}\n" +
		");\n"
	if diff := cmp.Diff(want, jsast.Print(res.Source.Tree)); diff != "" {
		t.Errorf("exported bundle mismatch (-want +got):\n%s", diff)
	}
}

func TestStepRootSelector(t *testing.T) {
	step := newStep(t, func(c *config.AdaptConfig) {
		c.Envelope = config.EnvelopeDefine
		c.RootSelector = "#app-root"
	})
	res, err := step.Adapt(context.Background(),
		parseJS(t, "var el = document.querySelector('#app-root');\nvar r = __REQUIRE__('react');\n"))
	require.NoError(t, err)

	out := jsast.Print(res.Source.Tree)
	assert.Contains(t, out, "[\"module\", \"react\"],\nfunction(module, react_0) {\n")
	assert.Contains(t, out, "var el = document.querySelector('#' + _LIFERAY_PARAMS_.portletElementId);")
	assert.Contains(t, out, "var r = react_0;")
}

func TestStepExportNeedsModuleEnvelope(t *testing.T) {
	cfg := config.DefaultAdaptConfig()
	cfg.StaticURLs = []string{"/logo.svg"}
	_, err := NewStep(cfg, "proj@1.0.0/main.bundle", nil)
	assert.Error(t, err)

	plain := newStep(t, nil)
	assert.False(t, plain.Exports)
	assert.Empty(t, plain.Before)
}

func TestAdaptCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newStep(t, nil).Adapt(ctx, parseJS(t, "a();\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
