package adapt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"jsadapt/internal/fsutil"
	"jsadapt/internal/transform"
)

// ManifestFile is the name of the manifest written to the output directory.
const ManifestFile = "adapt.manifest.json"

// Manifest records the modules each adapted bundle requires.
type Manifest struct {
	Bundles map[string]ManifestEntry `json:"bundles"`
}

// ManifestEntry is the manifest record of one bundle.
type ManifestEntry struct {
	File    string            `json:"file"`
	Modules []ModuleReference `json:"modules"`
}

// ReadManifest reads the manifest in dir. A missing manifest is empty.
func ReadManifest(dir string) (*Manifest, error) {
	m := &Manifest{Bundles: map[string]ManifestEntry{}}
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Bundles == nil {
		m.Bundles = map[string]ManifestEntry{}
	}
	return m, nil
}

// WriteManifest records the successfully adapted bundles in the manifest of
// dir, keeping the entries of bundles not part of results. It returns the
// manifest path.
func WriteManifest(dir string, results []BundleResult) (string, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return "", err
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		modules := r.References
		if modules == nil {
			modules = []ModuleReference{}
		}
		m.Bundles[r.ID] = ManifestEntry{File: filepath.Base(r.Output), Modules: modules}
	}

	data, err := transform.EncodeJSON(m)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ManifestFile)
	if err := fsutil.WriteFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}
