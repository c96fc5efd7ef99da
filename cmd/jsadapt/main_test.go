package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jsadapt/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"package.json":                  `{"name": "proj", "version": "1.0.0"}`,
		"build/bundler/main.bundle.js":  "var r = __REQUIRE__('react');\n",
		"build/bundler/bad.bundle.js":   "import x from 'x';\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadProject(t *testing.T) {
	dir := setupProject(t)
	p, err := loadProject(dir)
	if err != nil {
		t.Fatalf("loadProject failed: %v", err)
	}
	if p.Name != "proj" || p.Version != "1.0.0" {
		t.Errorf("unexpected project %s@%s", p.Name, p.Version)
	}
}

func TestAdaptReportsFailures(t *testing.T) {
	logger = zap.NewNop()
	p, err := loadProject(setupProject(t))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err = adaptBundles(context.Background(), &out, p, nil)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 bundles failed") {
		t.Fatalf("expected one failed bundle, got %v", err)
	}
	if !strings.Contains(out.String(), "main") || !strings.Contains(out.String(), "bad") {
		t.Errorf("report misses a bundle:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(p.OutputPath(), "main.bundle.js")); err != nil {
		t.Errorf("main bundle not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(p.OutputPath(), "bad.bundle.js")); !os.IsNotExist(err) {
		t.Errorf("failed bundle left output behind")
	}
}

func TestAdaptOnly(t *testing.T) {
	p, err := loadProject(setupProject(t))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := adaptBundles(context.Background(), &out, p, []string{"main"}); err != nil {
		t.Fatalf("adapt failed: %v", err)
	}
}

func TestRelocateCmd(t *testing.T) {
	dir := setupProject(t)
	var err error
	project, err = loadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { project = nil }()

	mapFile := filepath.Join(dir, "dist", "a.js.map")
	if err := os.MkdirAll(filepath.Dir(mapFile), 0755); err != nil {
		t.Fatal(err)
	}
	data := `{"version":3,"sources":["../src/a.js","webpack:///./src/b.js"],"names":[],"mappings":""}`
	if err := os.WriteFile(mapFile, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&bytes.Buffer{})
	if err := runRelocate(cmd, []string{mapFile}); err != nil {
		t.Fatalf("runRelocate failed: %v", err)
	}

	got, err := os.ReadFile(mapFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"liferay:proj@1.0.0/src/a.js"`, `"liferay:proj@1.0.0/src/b.js"`} {
		if !strings.Contains(string(got), want) {
			t.Errorf("relocated map misses %s:\n%s", want, got)
		}
	}

	// Relocating in place again leaves the map unchanged.
	if err := runRelocate(cmd, []string{mapFile}); err != nil {
		t.Fatalf("second runRelocate failed: %v", err)
	}
	again, err := os.ReadFile(mapFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(got) {
		t.Errorf("second relocation changed the map:\nfirst:  %s\nsecond: %s", got, again)
	}
}

func TestBuildLogger(t *testing.T) {
	if _, err := buildLogger(config.LoggingConfig{Level: "warn", Format: "json"}, false); err != nil {
		t.Errorf("buildLogger failed: %v", err)
	}
	if _, err := buildLogger(config.LoggingConfig{Level: "loud"}, false); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
