package adapt

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"jsadapt/internal/config"
	"jsadapt/internal/logging"
	"jsadapt/internal/transform"
)

// InjectImports lists the imported packages of p in the dependencies of the
// output package.json under their namespaced names, so that the loader can
// find them, and removes their raw names. Nothing happens when the output
// directory has no package.json.
func InjectImports(ctx context.Context, p *config.Project) error {
	if len(p.Imports) == 0 {
		return nil
	}
	file := filepath.Join(p.OutputPath(), "package.json")
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	namespaced := make(map[string]string, len(p.Imports))
	raw := make([]string, 0, len(p.Imports))
	for pkg, spec := range p.Imports {
		namespaced[AddNamespace(pkg, spec.Provider)] = spec.Version
		raw = append(raw, pkg)
	}
	sort.Strings(raw)

	if err := transform.TransformJSONFile(ctx, file, file,
		transform.AddDependencies(namespaced),
		transform.DeleteDependencies(raw...),
	); err != nil {
		return err
	}
	logging.AdaptDebug("replaced %d imported packages in %s", len(raw), file)
	return nil
}
