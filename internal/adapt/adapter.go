package adapt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"jsadapt/internal/config"
	"jsadapt/internal/diff"
	"jsadapt/internal/fsutil"
	"jsadapt/internal/logging"
	"jsadapt/internal/sourcemap"
	"jsadapt/internal/transform"

	"golang.org/x/sync/errgroup"
)

// slowBundle is how long one bundle may take before it is logged as slow.
const slowBundle = 5 * time.Second

// BundleSuffix is the file suffix of bundler output files.
const BundleSuffix = ".bundle.js"

// BundleResult is the outcome of adapting one bundle.
type BundleResult struct {
	ID         string
	Output     string
	References []ModuleReference
	Warnings   []*DynamicRequireError
	Duration   time.Duration
	// Diff is the change to the output bundle, set by Preview only.
	Diff string
	Err  error
}

// Report summarizes an adaptation run.
type Report struct {
	Bundles  []BundleResult
	Manifest string
}

// Failed returns the results of the bundles that could not be adapted.
func (r *Report) Failed() []BundleResult {
	var failed []BundleResult
	for _, b := range r.Bundles {
		if b.Err != nil {
			failed = append(failed, b)
		}
	}
	return failed
}

// Err joins the errors of all failed bundles.
func (r *Report) Err() error {
	var errs []error
	for _, b := range r.Failed() {
		errs = append(errs, fmt.Errorf("bundle %s: %w", b.ID, b.Err))
	}
	return errors.Join(errs...)
}

// Adapter adapts the bundles of one project.
type Adapter struct {
	project *config.Project
	resolve Resolver
}

// NewAdapter returns an adapter for p. The project is validated first.
func NewAdapter(p *config.Project) (*Adapter, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{project: p, resolve: ImportsResolver(p.Imports)}, nil
}

// DiscoverBundles returns the ids of the bundles found in dir, sorted.
func DiscoverBundles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles in %s: %w", dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, BundleSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, BundleSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// AdaptBundles adapts the given bundles, or every bundle of the project's
// bundle directory when ids is empty. Bundles are processed concurrently; a
// failing bundle leaves no output and does not stop the others. The
// returned error only reports problems of the run as a whole; per-bundle
// failures are in the report.
func (a *Adapter) AdaptBundles(ctx context.Context, ids []string) (*Report, error) {
	p := a.project
	timer := logging.StartTimer(logging.CategoryAdapt, "adapt bundles")
	defer timer.Stop()

	if err := os.MkdirAll(p.OutputPath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	report, err := a.run(ctx, ids, false)
	if err != nil {
		return nil, err
	}

	manifest, err := WriteManifest(p.OutputPath(), report.Bundles)
	if err != nil {
		return report, err
	}
	report.Manifest = manifest

	if err := InjectImports(ctx, p); err != nil {
		return report, err
	}
	return report, nil
}

// Preview adapts the given bundles like AdaptBundles but writes nothing.
// Each successful result carries the unified diff between the current
// output bundle and the one AdaptBundles would write.
func (a *Adapter) Preview(ctx context.Context, ids []string) (*Report, error) {
	return a.run(ctx, ids, true)
}

func (a *Adapter) run(ctx context.Context, ids []string, preview bool) (*Report, error) {
	p := a.project
	if len(ids) == 0 {
		var err error
		ids, err = DiscoverBundles(p.BundlePath())
		if err != nil {
			return nil, err
		}
	}

	if d := p.Adapt.GetTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	report := &Report{Bundles: make([]BundleResult, len(ids))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Adapt.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			report.Bundles[i] = a.adaptBundle(gctx, id, preview)
			return nil
		})
	}
	_ = g.Wait()

	for _, b := range report.Bundles {
		if b.Err != nil {
			logging.AdaptError("bundle %s failed: %v", b.ID, b.Err)
		}
	}
	return report, nil
}

func (a *Adapter) adaptBundle(ctx context.Context, id string, preview bool) (result BundleResult) {
	p := a.project
	timer := logging.StartTimer(logging.CategoryAdapt, "adapt "+id)
	result = BundleResult{ID: id, Output: filepath.Join(p.OutputPath(), id+BundleSuffix)}
	defer func() { result.Duration = timer.StopWithThreshold(slowBundle) }()

	src := filepath.Join(p.BundlePath(), id+BundleSuffix)
	js, err := transform.ReadJS(ctx, src)
	if err != nil {
		result.Err = err
		return result
	}

	step, err := NewStep(p.Adapt, fmt.Sprintf("%s@%s/%s.bundle", p.Name, p.Version, id), a.resolve)
	if err != nil {
		result.Err = err
		return result
	}
	res, err := step.Adapt(ctx, js)
	if err != nil {
		result.Err = err
		return result
	}
	result.References = res.Aliases.References()
	result.Warnings = res.Warnings

	code, m, err := transform.Render(res.Source, result.Output)
	if err != nil {
		result.Err = err
		return result
	}
	if p.Adapt.StripSourceMappingURL {
		doc, err := transform.Run(ctx, transform.KindText,
			[]transform.Transform{transform.StripSourceMappingURL()},
			&transform.TextDocument{Text: code})
		if err != nil {
			result.Err = err
			return result
		}
		code = doc.(*transform.TextDocument).Text
	}

	m, err = sourcemap.RelocateSources(m, sourcemap.Origin{
		Dir:       p.Dir,
		MapDir:    p.OutputPath(),
		Name:      p.Name,
		Version:   p.Version,
		Namespace: p.Namespace,
	})
	if err != nil {
		result.Err = err
		return result
	}
	mapData, err := m.Marshal()
	if err != nil {
		result.Err = err
		return result
	}

	code = transform.WithMapURL(code, result.Output+".map")

	if preview {
		current, err := os.ReadFile(result.Output)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			result.Err = err
			return result
		}
		name := filepath.Base(result.Output)
		result.Diff = diff.Compute(name, name, string(current), code).Unified()
		return result
	}

	stage := fsutil.NewStage()
	defer stage.Discard()
	if err := stage.Add(result.Output, []byte(code), 0644); err != nil {
		result.Err = err
		return result
	}
	if err := stage.Add(result.Output+".map", mapData, 0644); err != nil {
		result.Err = err
		return result
	}
	if err := ctx.Err(); err != nil {
		result.Err = fmt.Errorf("adaptation canceled: %w", err)
		return result
	}
	if err := stage.Commit(); err != nil {
		result.Err = err
		return result
	}

	logging.Adapt("adapted %s (%d modules)", id, len(result.References))
	return result
}
