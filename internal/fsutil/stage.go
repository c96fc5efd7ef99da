// Package fsutil writes groups of files so that readers see either all of
// them or none.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpName, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func writeTemp(path string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", err
	}
	_ = tmp.Sync() // best-effort durability
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	return tmpName, nil
}

// Stage collects the outputs of one unit of work. Files are written to temp
// files as they are added and only renamed into place by Commit. Discard
// removes everything staged so far; it is safe to call after Commit.
type Stage struct {
	temps map[string]string // target -> temp file
	done  bool
}

// NewStage returns an empty stage.
func NewStage() *Stage {
	return &Stage{temps: make(map[string]string)}
}

// Add stages data for path, replacing anything staged for it before.
func (s *Stage) Add(path string, data []byte, perm os.FileMode) error {
	if s.done {
		return fmt.Errorf("stage already committed or discarded")
	}
	tmp, err := writeTemp(path, data, perm)
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	if old, ok := s.temps[path]; ok {
		_ = os.Remove(old)
	}
	s.temps[path] = tmp
	return nil
}

// Paths returns the staged target paths in sorted order.
func (s *Stage) Paths() []string {
	return sortedPaths(s.temps)
}

// Commit renames every staged file into place. If any rename fails, the
// files already committed are rolled back to what they were before, the
// remaining temp files are removed and the error is returned.
func (s *Stage) Commit() error {
	if s.done {
		return fmt.Errorf("stage already committed or discarded")
	}
	s.done = true
	temps := s.temps
	s.temps = nil

	paths := sortedPaths(temps)
	var done []replaced
	for i, path := range paths {
		r, err := replace(path, temps[path])
		if err != nil {
			for _, rest := range paths[i:] {
				_ = os.Remove(temps[rest])
			}
			return errors.Join(fmt.Errorf("failed to commit %s: %w", path, err), rollback(done))
		}
		done = append(done, r)
	}
	for _, r := range done {
		if r.backup != "" {
			_ = os.Remove(r.backup)
		}
	}
	return nil
}

// replaced records a committed file and where its previous content was moved.
type replaced struct {
	path   string
	backup string
}

// replace moves any existing file at path aside and renames tmp onto it.
func replace(path, tmp string) (replaced, error) {
	r := replaced{path: path}
	if _, err := os.Lstat(path); err == nil {
		b, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".bak.*")
		if err != nil {
			return r, err
		}
		_ = b.Close()
		if err := os.Rename(path, b.Name()); err != nil {
			_ = os.Remove(b.Name())
			return r, err
		}
		r.backup = b.Name()
	}
	if err := os.Rename(tmp, path); err != nil {
		if r.backup != "" {
			_ = os.Rename(r.backup, path)
		}
		return r, err
	}
	return r, nil
}

// rollback restores committed files in reverse order.
func rollback(done []replaced) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		r := done[i]
		var err error
		if r.backup != "" {
			err = os.Rename(r.backup, r.path)
		} else {
			err = os.Remove(r.path)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to roll back %s: %w", r.path, err))
		}
	}
	return errors.Join(errs...)
}

func sortedPaths(temps map[string]string) []string {
	paths := make([]string, 0, len(temps))
	for p := range temps {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Discard removes all staged temp files.
func (s *Stage) Discard() {
	if s.done {
		return
	}
	s.done = true
	for _, tmp := range s.temps {
		_ = os.Remove(tmp)
	}
	s.temps = nil
}
