package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Permissions used for everything the archiver creates.
const (
	dirPerm  os.FileMode = 0o750
	filePerm os.FileMode = 0o644
)

// FS is the subset of filesystem operations the archiver needs.
type FS interface {
	// EnsureDir creates dir and any missing parents.
	EnsureDir(dir string) error
	// WriteFile writes data to name, replacing any existing content.
	// Parent directories are created as needed.
	WriteFile(name string, data []byte) error
	// ReadFile returns the content of name.
	ReadFile(name string) ([]byte, error)
	// Exists reports whether name exists.
	Exists(name string) (bool, error)
	// Remove deletes name. Removing a missing file is not an error.
	Remove(name string) error
	// Glob returns the names matching pattern, sorted lexically.
	Glob(pattern string) ([]string, error)
}

// OSFS implements FS on the local filesystem.
type OSFS struct{}

var _ FS = OSFS{}

// EnsureDir implements FS.
func (OSFS) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// WriteFile implements FS.
func (o OSFS) WriteFile(name string, data []byte) error {
	if err := o.EnsureDir(filepath.Dir(name)); err != nil {
		return err
	}
	if err := os.WriteFile(name, data, filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ReadFile implements FS.
func (OSFS) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Clean(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Exists implements FS.
func (OSFS) Exists(name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", name, err)
}

// Remove implements FS.
func (OSFS) Remove(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Glob implements FS.
func (OSFS) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}
	return matches, nil
}
