// Package bundler produces the bundles adapted by jsadapt using esbuild.
// Each export of the project becomes <id>.bundle.js in the bundle
// directory, a CommonJS file whose imported packages stay external calls to
// require.
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"jsadapt/internal/config"
	"jsadapt/internal/fsutil"
	"jsadapt/internal/logging"

	"github.com/evanw/esbuild/pkg/api"
)

// Marker is the callee esbuild emits for external modules in CommonJS
// output. Bundles built here are adapted with it.
const Marker = "require"

// MetafileName is the esbuild metafile written next to the bundles.
const MetafileName = "esbuild.meta.json"

// Bundle describes one output bundle.
type Bundle struct {
	ID        string
	File      string
	Bytes     int
	Externals []string
}

// Result is the outcome of a build.
type Result struct {
	Bundles  []Bundle
	Warnings []string
}

// IDs returns the ids of the built bundles.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Bundles))
	for i, b := range r.Bundles {
		ids[i] = b.ID
	}
	return ids
}

// BuildError carries the messages of a failed esbuild run.
type BuildError struct {
	Messages []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("esbuild failed: %s", strings.Join(e.Messages, "; "))
}

// Esbuild bundles the exports of a project.
type Esbuild struct {
	project *config.Project
}

// New returns a bundler for p.
func New(p *config.Project) *Esbuild {
	return &Esbuild{project: p}
}

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Options returns the esbuild options for the project.
func (b *Esbuild) Options() (api.BuildOptions, error) {
	p := b.project
	if len(p.Exports) == 0 {
		return api.BuildOptions{}, fmt.Errorf("project %s has no exports to bundle", p.Name)
	}
	target, ok := targets[strings.ToLower(p.Build.Target)]
	if !ok {
		return api.BuildOptions{}, fmt.Errorf("unknown build target %q", p.Build.Target)
	}

	ids := make([]string, 0, len(p.Exports))
	for id := range p.Exports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]api.EntryPoint, len(ids))
	for i, id := range ids {
		entries[i] = api.EntryPoint{InputPath: p.Path(p.Exports[id]), OutputPath: id + ".bundle"}
	}

	opts := api.BuildOptions{
		EntryPointsAdvanced: entries,
		Bundle:              true,
		Write:               true,
		Metafile:            true,
		Format:              api.FormatCommonJS,
		Platform:            api.PlatformBrowser,
		Target:              target,
		Sourcemap:           api.SourceMapLinked,
		Outdir:              p.BundlePath(),
		AbsWorkingDir:       p.Dir,
		Define:              p.Build.Define,
		MinifyWhitespace:    p.Build.Minify,
		MinifySyntax:        p.Build.Minify,
		LogLevel:            api.LogLevelSilent,
	}
	if len(p.Imports) > 0 {
		opts.Plugins = []api.Plugin{importsExternalPlugin(p.Imports)}
	}
	return opts, nil
}

// importsExternalPlugin leaves the packages provided by other projects, and
// their subpaths, as runtime requires.
func importsExternalPlugin(imports map[string]config.ImportSpec) api.Plugin {
	names := make([]string, 0, len(imports))
	for name := range imports {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Strings(names)
	filter := `^(` + strings.Join(names, "|") + `)(/.*)?$`

	return api.Plugin{
		Name: "jsadapt-imports",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:     args.Path,
						External: true,
					}, nil
				})
		},
	}
}

// Build bundles every export of the project into the bundle directory.
func (b *Esbuild) Build(ctx context.Context) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryBundle, "esbuild")
	defer timer.Stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts, err := b.Options()
	if err != nil {
		return nil, err
	}

	res := api.Build(opts)
	result := &Result{}
	for _, w := range res.Warnings {
		msg := formatMessage(w)
		logging.BundleWarn("%s", msg)
		result.Warnings = append(result.Warnings, msg)
	}
	if len(res.Errors) > 0 {
		berr := &BuildError{}
		for _, e := range res.Errors {
			berr.Messages = append(berr.Messages, formatMessage(e))
		}
		return nil, berr
	}

	var meta Metafile
	if err := json.Unmarshal([]byte(res.Metafile), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	metaPath := filepath.Join(b.project.BundlePath(), MetafileName)
	if err := fsutil.WriteFileAtomic(metaPath, []byte(res.Metafile), 0644); err != nil {
		return nil, err
	}

	for out, info := range meta.Outputs {
		if !strings.HasSuffix(out, ".bundle.js") {
			continue
		}
		file := filepath.Join(b.project.Dir, filepath.FromSlash(out))
		logging.BundleDebug("%s: %d bytes, %d externals", out, info.Bytes, len(info.externals()))
		result.Bundles = append(result.Bundles, Bundle{
			ID:        strings.TrimSuffix(filepath.Base(out), ".bundle.js"),
			File:      file,
			Bytes:     info.Bytes,
			Externals: info.externals(),
		})
	}
	sort.Slice(result.Bundles, func(i, j int) bool { return result.Bundles[i].ID < result.Bundles[j].ID })

	logging.Bundle("built %d bundles into %s", len(result.Bundles), b.project.BundleDir)
	return result, nil
}

func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column+1, m.Text)
}

// ForBundles returns a copy of p set up to adapt the bundles built here.
func ForBundles(p *config.Project) *config.Project {
	cp := *p
	cp.Adapt.Marker = Marker
	return &cp
}
