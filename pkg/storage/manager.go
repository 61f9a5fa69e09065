package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TempSuffix marks files still being written
const TempSuffix = ".part"

// Manager handles file storage operations for one destination directory
type Manager struct {
	dir string
}

// NewManager creates the directory if needed and returns a Manager for it
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the managed directory
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the full path of a file in the managed directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name)
}

// Exists reports whether a regular file with the given name is present
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Save copies r into the named file and returns the number of bytes written.
// The data lands in a temporary file first; on any error nothing is left behind.
func (m *Manager) Save(r io.Reader, name string) (int64, error) {
	if name == "" || name != filepath.Base(name) {
		return 0, fmt.Errorf("invalid file name %q", name)
	}

	filename := m.Path(name)
	tempFile := filename + TempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to write file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return written, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}

// Remove deletes the named file; a missing file is not an error
func (m *Manager) Remove(name string) error {
	if err := os.Remove(m.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// List returns the sorted names of the regular files in the directory,
// excluding leftover temporary files.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), TempSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// RemoveAll deletes the managed directory and everything in it
func (m *Manager) RemoveAll() error {
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", m.dir, err)
	}
	return nil
}
