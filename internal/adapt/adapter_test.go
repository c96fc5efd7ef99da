package adapt

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jsadapt/internal/config"
	"jsadapt/internal/jsast"
	"jsadapt/internal/sourcemap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject(t *testing.T) *config.Project {
	t.Helper()
	p := config.DefaultProject()
	p.Dir = t.TempDir()
	p.Name = "proj"
	p.Version = "1.0.0"
	p.Imports = map[string]config.ImportSpec{
		"react": {Provider: "frontend-js-react-web", Version: "^1.0.0"},
	}
	return p
}

func TestAdaptBundles(t *testing.T) {
	p := testProject(t)
	writeFile(t, filepath.Join(p.BundlePath(), "main.bundle.js"),
		"var r = __REQUIRE__('react');\nvar l = __REQUIRE__('./lib');\n//# sourceMappingURL=main.bundle.js.map\n")
	writeFile(t, filepath.Join(p.BundlePath(), "broken.bundle.js"), "export default 1;\n")
	writeFile(t, filepath.Join(p.OutputPath(), "package.json"),
		`{"name": "proj", "dependencies": {"react": "^16.0.0", "lodash": "4.0.0"}}`)

	a, err := NewAdapter(p)
	require.NoError(t, err)
	report, err := a.AdaptBundles(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, report.Bundles, 2)
	broken, main := report.Bundles[0], report.Bundles[1]
	assert.Equal(t, "broken", broken.ID)
	assert.Equal(t, "main", main.ID)

	var unsupported *jsast.UnsupportedNodeError
	assert.True(t, errors.As(broken.Err, &unsupported))
	assert.NoFileExists(t, broken.Output)
	assert.NoFileExists(t, broken.Output+".map")
	assert.Len(t, report.Failed(), 1)
	assert.ErrorContains(t, report.Err(), "bundle broken")

	require.NoError(t, main.Err)
	assert.Equal(t, []ModuleReference{
		{Request: "react", ModuleID: "frontend-js-react-web$react", Alias: "react_0"},
		{Request: "./lib", ModuleID: "./lib", Alias: "lib_1"},
	}, main.References)

	code, err := os.ReadFile(main.Output)
	require.NoError(t, err)
	assert.Equal(t, "Liferay.Loader.require(\n"+
		"[\"frontend-js-react-web$react\", \"./lib\"],\n"+
		"function(react_0, lib_1) {\n"+
		"var r = react_0;\n"+
		"var l = lib_1;\n"+
		"\n"+
		"}\n"+
		");\n"+
		"//# sourceMappingURL=main.bundle.js.map\n", string(code))

	m, err := sourcemap.Load(main.Output + ".map")
	require.NoError(t, err)
	assert.Equal(t, []string{"liferay:proj@1.0.0/build/bundler/main.bundle.js"}, m.Sources)
	assert.Equal(t, "main.bundle.js", m.File)

	manifest, err := ReadManifest(p.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.OutputPath(), ManifestFile), report.Manifest)
	require.Contains(t, manifest.Bundles, "main")
	assert.NotContains(t, manifest.Bundles, "broken")
	assert.Equal(t, "main.bundle.js", manifest.Bundles["main"].File)
	assert.Equal(t, main.References, manifest.Bundles["main"].Modules)

	var pkg struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	data, err := os.ReadFile(filepath.Join(p.OutputPath(), "package.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &pkg))
	assert.Equal(t, map[string]string{
		"frontend-js-react-web$react": "^1.0.0",
		"lodash":                      "4.0.0",
	}, pkg.Dependencies)
}

func TestAdaptBundlesMalformedEnvelopeWritesNothing(t *testing.T) {
	p := testProject(t)
	p.Adapt.Envelope = config.EnvelopeCustom
	p.Adapt.Template = "Liferay.Loader.require([], function(a) {\n}, function(b) {\n});"
	writeFile(t, filepath.Join(p.BundlePath(), "main.bundle.js"), "a();\n")

	a, err := NewAdapter(p)
	require.NoError(t, err)
	report, err := a.AdaptBundles(context.Background(), []string{"main"})
	require.NoError(t, err)

	var shape *TemplateShapeError
	assert.True(t, errors.As(report.Bundles[0].Err, &shape))
	assert.NoFileExists(t, filepath.Join(p.OutputPath(), "main.bundle.js"))
}

func TestAdaptBundlesMissingBundle(t *testing.T) {
	p := testProject(t)
	writeFile(t, filepath.Join(p.BundlePath(), "ok.bundle.js"), "a();\n")

	a, err := NewAdapter(p)
	require.NoError(t, err)
	report, err := a.AdaptBundles(context.Background(), []string{"missing", "ok"})
	require.NoError(t, err)

	assert.Error(t, report.Bundles[0].Err)
	assert.NoError(t, report.Bundles[1].Err)
	assert.FileExists(t, filepath.Join(p.OutputPath(), "ok.bundle.js"))
}

func TestAdaptBundlesComposesInputMap(t *testing.T) {
	p := testProject(t)
	writeFile(t, filepath.Join(p.BundlePath(), "main.bundle.js"), "__REQUIRE__('x');\n")
	writeFile(t, filepath.Join(p.BundlePath(), "main.bundle.js.map"),
		`{"version":3,"sources":["webpack:///./src/index.js"],"names":[],"mappings":"AAAA"}`)

	a, err := NewAdapter(p)
	require.NoError(t, err)
	report, err := a.AdaptBundles(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	m, err := sourcemap.Load(filepath.Join(p.OutputPath(), "main.bundle.js.map"))
	require.NoError(t, err)
	assert.Equal(t, []string{"liferay:proj@1.0.0/src/index.js"}, m.Sources)
}

func TestNewAdapterValidates(t *testing.T) {
	p := testProject(t)
	p.Version = ""
	_, err := NewAdapter(p)
	var invalid *config.ValidationError
	assert.True(t, errors.As(err, &invalid))
}

func TestDiscoverBundles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vendor.bundle.js"), "")
	writeFile(t, filepath.Join(dir, "main.bundle.js"), "")
	writeFile(t, filepath.Join(dir, "main.bundle.js.map"), "{}")
	writeFile(t, filepath.Join(dir, "other.js"), "")

	ids, err := DiscoverBundles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "vendor"}, ids)
}

func TestWriteManifestMerges(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteManifest(dir, []BundleResult{
		{ID: "a", Output: filepath.Join(dir, "a.bundle.js")},
		{ID: "b", Output: filepath.Join(dir, "b.bundle.js"), References: []ModuleReference{{Request: "x", ModuleID: "x", Alias: "x_0"}}},
	})
	require.NoError(t, err)
	_, err = WriteManifest(dir, []BundleResult{
		{ID: "a", Output: filepath.Join(dir, "a.bundle.js"), References: []ModuleReference{{Request: "y", ModuleID: "y", Alias: "y_0"}}},
		{ID: "b", Err: errors.New("boom")},
	})
	require.NoError(t, err)

	m, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "y_0", m.Bundles["a"].Modules[0].Alias)
	assert.Equal(t, "x_0", m.Bundles["b"].Modules[0].Alias)
}

func TestPreviewWritesNothing(t *testing.T) {
	p := testProject(t)
	writeFile(t, filepath.Join(p.BundlePath(), "main.bundle.js"), "__REQUIRE__('x');\n")

	a, err := NewAdapter(p)
	require.NoError(t, err)
	report, err := a.Preview(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, report.Bundles, 1)

	b := report.Bundles[0]
	require.NoError(t, b.Err)
	assert.Contains(t, b.Diff, "--- /dev/null\n+++ b/main.bundle.js\n")
	assert.Contains(t, b.Diff, "+Liferay.Loader.require(\n")
	assert.NoFileExists(t, b.Output)
	assert.NoFileExists(t, filepath.Join(p.OutputPath(), ManifestFile))

	_, err = a.AdaptBundles(context.Background(), nil)
	require.NoError(t, err)
	report, err = a.Preview(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Bundles[0].Diff)
}
