package config

import (
	"fmt"
	"time"
)

// BuildConfig configures the bundler run of `jsadapt build`.
type BuildConfig struct {
	Target string `yaml:"target"` // esbuild target, e.g. es2017
	Minify bool   `yaml:"minify"`
	// Define replaces global identifiers at bundle time.
	Define map[string]string `yaml:"define"`
}

// DefaultBuildConfig returns the default build settings.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		Target: "es2017",
	}
}

// WatchConfig configures `jsadapt watch`.
type WatchConfig struct {
	Debounce string   `yaml:"debounce"`
	Ignore   []string `yaml:"ignore"` // directory names never watched
}

// DefaultWatchConfig returns the default watch settings.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		Debounce: "300ms",
		Ignore:   []string{"node_modules", ".git"},
	}
}

// GetDebounce returns the debounce interval as a duration.
func (c WatchConfig) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

func (c WatchConfig) validate() error {
	if c.Debounce == "" {
		return nil
	}
	if d, err := time.ParseDuration(c.Debounce); err != nil || d < 0 {
		return &ValidationError{Field: "watch.debounce", Message: fmt.Sprintf("%q is not a duration", c.Debounce)}
	}
	return nil
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}
