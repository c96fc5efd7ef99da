package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"jsadapt/internal/adapt"
	"jsadapt/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testProject(t *testing.T) *config.Project {
	t.Helper()
	p := config.DefaultProject()
	p.Dir = t.TempDir()
	p.Name = "proj"
	p.Version = "1.0.0"
	p.Exports = map[string]string{"main": "src/index.js"}
	p.Imports = map[string]config.ImportSpec{"react": {Provider: "react-provider", Version: "1.0.0"}}

	writeFile(t, filepath.Join(p.Dir, "src", "index.js"),
		"import React from 'react';\nimport { x } from './lib';\nconsole.log(React, x);\n")
	writeFile(t, filepath.Join(p.Dir, "src", "lib.js"), "export const x = 1;\n")
	return p
}

func TestOptions(t *testing.T) {
	p := testProject(t)
	opts, err := New(p).Options()
	require.NoError(t, err)

	require.Len(t, opts.EntryPointsAdvanced, 1)
	assert.Equal(t, filepath.Join(p.Dir, "src", "index.js"), opts.EntryPointsAdvanced[0].InputPath)
	assert.Equal(t, "main.bundle", opts.EntryPointsAdvanced[0].OutputPath)
	assert.Equal(t, p.BundlePath(), opts.Outdir)
	assert.Len(t, opts.Plugins, 1)

	p.Build.Target = "es3000"
	_, err = New(p).Options()
	assert.Error(t, err)

	p.Exports = nil
	_, err = New(p).Options()
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	p := testProject(t)
	res, err := New(p).Build(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"main"}, res.IDs())
	b := res.Bundles[0]
	assert.Equal(t, filepath.Join(p.BundlePath(), "main.bundle.js"), b.File)
	assert.Equal(t, []string{"react"}, b.Externals)
	assert.FileExists(t, b.File+".map")
	assert.FileExists(t, filepath.Join(p.BundlePath(), MetafileName))

	code, err := os.ReadFile(b.File)
	require.NoError(t, err)
	assert.Contains(t, string(code), `require("react")`)
}

func TestBuildError(t *testing.T) {
	p := testProject(t)
	writeFile(t, filepath.Join(p.Dir, "src", "index.js"), "import { y } from './missing';\n")

	_, err := New(p).Build(context.Background())
	var berr *BuildError
	require.True(t, errors.As(err, &berr), "got %v", err)
	assert.NotEmpty(t, berr.Messages)
}

func TestBuildThenAdapt(t *testing.T) {
	p := testProject(t)
	res, err := New(p).Build(context.Background())
	require.NoError(t, err)

	a, err := adapt.NewAdapter(ForBundles(p))
	require.NoError(t, err)
	report, err := a.AdaptBundles(context.Background(), res.IDs())
	require.NoError(t, err)
	require.NoError(t, report.Err())

	main := report.Bundles[0]
	require.Len(t, main.References, 1)
	assert.Equal(t, "react-provider$react", main.References[0].ModuleID)

	code, err := os.ReadFile(main.Output)
	require.NoError(t, err)
	assert.Contains(t, string(code), `Liferay.Loader.require(`)
	assert.NotContains(t, string(code), `require("react")`)
}

func TestForBundlesCopies(t *testing.T) {
	p := config.DefaultProject()
	cp := ForBundles(p)
	assert.Equal(t, Marker, cp.Adapt.Marker)
	assert.Equal(t, "__REQUIRE__", p.Adapt.Marker)
}
