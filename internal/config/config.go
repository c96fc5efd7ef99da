package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"jsadapt/internal/fsutil"
	"jsadapt/internal/logging"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the project descriptor.
const FileName = "jsadapt.yaml"

// Project describes the project whose bundles are adapted. It is loaded once
// and not modified afterwards.
type Project struct {
	// Core settings. Name and version fall back to package.json.
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Namespace prefixes relocated source map entries.
	Namespace string `yaml:"namespace"`

	// Dir is the project directory; it is where the descriptor was found.
	Dir string `yaml:"-"`

	OutputDir string `yaml:"output_dir"`
	BundleDir string `yaml:"bundle_dir"`

	// Exports maps bundle ids to their entry points, relative to Dir.
	Exports map[string]string `yaml:"exports"`

	// Imports lists the packages provided by other projects at runtime.
	Imports map[string]ImportSpec `yaml:"imports"`

	Adapt   AdaptConfig   `yaml:"adapt"`
	Build   BuildConfig   `yaml:"build"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportSpec names the project that provides an imported package.
type ImportSpec struct {
	Provider string `yaml:"provider"`
	Version  string `yaml:"version"`
}

// DefaultProject returns the default configuration.
func DefaultProject() *Project {
	return &Project{
		Namespace: "liferay",
		OutputDir: "build",
		BundleDir: "build/bundler",
		Exports:   map[string]string{},
		Imports:   map[string]ImportSpec{},
		Adapt:     DefaultAdaptConfig(),
		Build:     DefaultBuildConfig(),
		Watch:     DefaultWatchConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads the descriptor at path. A missing descriptor yields the
// defaults; name and version then come from package.json next to it.
func Load(path string) (*Project, error) {
	cfg := DefaultProject()

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		logging.ConfigDebug("no %s in %s, using defaults", filepath.Base(path), dir)
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyPackageJSON(); err != nil {
		return nil, err
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadDir loads the descriptor of the project in dir.
func LoadDir(dir string) (*Project, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save saves the configuration to a YAML file.
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

type packageJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (p *Project) applyPackageJSON() error {
	path := filepath.Join(p.Dir, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if p.Name != "" && pkg.Name != "" && p.Name != pkg.Name {
		logging.ConfigWarn("%s names the project %q but package.json says %q", FileName, p.Name, pkg.Name)
	}
	if p.Name == "" {
		p.Name = pkg.Name
	}
	if p.Version == "" {
		p.Version = pkg.Version
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (p *Project) applyEnvOverrides() {
	if dir := os.Getenv("JSADAPT_OUTPUT_DIR"); dir != "" {
		p.OutputDir = dir
	}
	if dir := os.Getenv("JSADAPT_BUNDLE_DIR"); dir != "" {
		p.BundleDir = dir
	}
	if ns := os.Getenv("JSADAPT_NAMESPACE"); ns != "" {
		p.Namespace = ns
	}
}

// Path resolves rel against the project directory.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Dir, rel)
}

// OutputPath returns the absolute output directory.
func (p *Project) OutputPath() string {
	return p.Path(p.OutputDir)
}

// BundlePath returns the absolute directory holding bundler output.
func (p *Project) BundlePath() string {
	return p.Path(p.BundleDir)
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate validates the configuration.
func (p *Project) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "project name not configured (set it in " + FileName + " or package.json)"}
	}
	if p.Version == "" {
		return &ValidationError{Field: "version", Message: "project version not configured"}
	}
	if strings.ContainsAny(p.Namespace, ":/") {
		return &ValidationError{Field: "namespace", Message: fmt.Sprintf("%q may not contain ':' or '/'", p.Namespace)}
	}
	for pkg, spec := range p.Imports {
		if spec.Provider == "" {
			return &ValidationError{Field: "imports." + pkg, Message: "provider not configured"}
		}
	}
	for id, entry := range p.Exports {
		if strings.Contains(id, "/") || id == "" {
			return &ValidationError{Field: "exports", Message: fmt.Sprintf("bundle id %q must be a plain name", id)}
		}
		if entry == "" {
			return &ValidationError{Field: "exports." + id, Message: "entry point not configured"}
		}
	}
	if err := p.Adapt.validate(); err != nil {
		return err
	}
	return p.Watch.validate()
}
