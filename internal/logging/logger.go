// Package logging provides categorized logging for jsadapt on top of zap.
// Each category is a named child of the process logger, so output can be
// filtered by the "logger" field. Until Initialize is called every logger is
// a no-op.
package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // CLI startup, project loading
	CategoryConfig    Category = "config"    // Project descriptor resolution
	CategoryParse     Category = "parse"     // JavaScript parsing
	CategoryTransform Category = "transform" // Transform pipelines and file persistence
	CategoryAdapt     Category = "adapt"     // Module adaptation (require aliasing, wrapping)
	CategorySourceMap Category = "sourcemap" // Source map composition and relocation
	CategoryBundle    Category = "bundle"    // Bundler invocations
	CategoryWatch     Category = "watch"     // File watching and rebuilds
)

// Logger is a category logger with printf-style methods.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	loggers = make(map[Category]*Logger)
)

// Initialize installs the process logger. Loggers handed out before the call
// keep writing to the previous one.
func Initialize(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	base = l
	loggers = make(map[Category]*Logger)
}

// Base returns the process logger for callers that log zap fields directly.
func Base() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered output.
func Sync() {
	// Syncing stderr fails on some terminals; nothing useful to do about it.
	_ = Base().Sync()
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// With returns a logger that adds the given key-value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// ConfigDebug logs debug to the config category
func ConfigDebug(format string, args ...interface{}) {
	Get(CategoryConfig).Debug(format, args...)
}

// ConfigWarn logs a warning to the config category
func ConfigWarn(format string, args ...interface{}) {
	Get(CategoryConfig).Warn(format, args...)
}

// ParseDebug logs debug to the parse category
func ParseDebug(format string, args ...interface{}) {
	Get(CategoryParse).Debug(format, args...)
}

// Transform logs to the transform category
func Transform(format string, args ...interface{}) {
	Get(CategoryTransform).Info(format, args...)
}

// TransformDebug logs debug to the transform category
func TransformDebug(format string, args ...interface{}) {
	Get(CategoryTransform).Debug(format, args...)
}

// Adapt logs to the adapt category
func Adapt(format string, args ...interface{}) {
	Get(CategoryAdapt).Info(format, args...)
}

// AdaptDebug logs debug to the adapt category
func AdaptDebug(format string, args ...interface{}) {
	Get(CategoryAdapt).Debug(format, args...)
}

// AdaptWarn logs a warning to the adapt category
func AdaptWarn(format string, args ...interface{}) {
	Get(CategoryAdapt).Warn(format, args...)
}

// AdaptError logs an error to the adapt category
func AdaptError(format string, args ...interface{}) {
	Get(CategoryAdapt).Error(format, args...)
}

// SourceMapDebug logs debug to the sourcemap category
func SourceMapDebug(format string, args ...interface{}) {
	Get(CategorySourceMap).Debug(format, args...)
}

// SourceMapWarn logs a warning to the sourcemap category
func SourceMapWarn(format string, args ...interface{}) {
	Get(CategorySourceMap).Warn(format, args...)
}

// Bundle logs to the bundle category
func Bundle(format string, args ...interface{}) {
	Get(CategoryBundle).Info(format, args...)
}

// BundleDebug logs debug to the bundle category
func BundleDebug(format string, args ...interface{}) {
	Get(CategoryBundle).Debug(format, args...)
}

// BundleWarn logs a warning to the bundle category
func BundleWarn(format string, args ...interface{}) {
	Get(CategoryBundle).Warn(format, args...)
}

// Watch logs to the watch category
func Watch(format string, args ...interface{}) {
	Get(CategoryWatch).Info(format, args...)
}

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) {
	Get(CategoryWatch).Debug(format, args...)
}

// WatchError logs an error to the watch category
func WatchError(format string, args ...interface{}) {
	Get(CategoryWatch).Error(format, args...)
}

// =============================================================================
// RUN ID TRACING - Correlates the entries of one CLI invocation
// =============================================================================

// WithRunID returns a category logger tagged with a run id.
func WithRunID(category Category, runID string) *Logger {
	return Get(category).With("run", runID)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}

