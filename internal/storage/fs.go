// Package storage manages a flat directory of exported note files.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir is an export directory. Files are addressed by base name; nested
// paths are rejected.
type Dir struct {
	root string // absolute path
}

// NewDir returns the export directory at root, creating it if missing.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute directory path.
func (d *Dir) Root() string {
	return d.root
}

// safePath resolves name inside the root and rejects anything that is not a
// plain file name.
func (d *Dir) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid file name %q", name)
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("storage: path escapes export root: %s", name)
	}
	return filepath.Join(d.root, name), nil
}

// List returns the names of the .md files in the directory.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".md") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// Read returns the raw bytes of a file.
func (d *Dir) Read(name string) ([]byte, error) {
	abs, err := d.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write stores content under name: tmp file, fsync, rename. A file that
// already holds the same bytes is left alone and changed is false.
func (d *Dir) Write(name string, content []byte) (changed bool, err error) {
	abs, err := d.safePath(name)
	if err != nil {
		return false, err
	}
	if old, err := os.ReadFile(abs); err == nil && bytes.Equal(old, content) {
		return false, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("storage: read %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(d.root, ".notesd-tmp-*")
	if err != nil {
		return false, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return false, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return false, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return true, nil
}

// Delete removes a file.
func (d *Dir) Delete(name string) error {
	abs, err := d.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}
