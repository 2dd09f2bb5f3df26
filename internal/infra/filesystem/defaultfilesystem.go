package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFileSystem implements FileSystem using the standard os package.
type DefaultFileSystem struct{}

// NewDefaultFileSystem creates a new DefaultFileSystem instance.
func NewDefaultFileSystem() *DefaultFileSystem {
	return &DefaultFileSystem{}
}

// Create creates or truncates the named file.
func (f *DefaultFileSystem) Create(name string) (File, error) {
	file, err := os.Create(name) // #nosec G304 -- path comes from the catalog/config, not untrusted input
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", name, err)
	}
	return file, nil
}

// Open opens the named file for reading.
func (f *DefaultFileSystem) Open(name string) (File, error) {
	file, err := os.Open(name) // #nosec G304 -- path comes from the catalog/config, not untrusted input
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	return file, nil
}

// Remove removes the named file or (empty) directory.
func (f *DefaultFileSystem) Remove(name string) error {
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// RemoveAll removes path and any children it contains.
func (f *DefaultFileSystem) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove all %s: %w", path, err)
	}
	return nil
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (f *DefaultFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("failed to create directory tree %s: %w", path, err)
	}
	return nil
}

// ReadDir reads the named directory and returns a list of directory entries.
func (f *DefaultFileSystem) ReadDir(dirname string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dirname, err)
	}
	return entries, nil
}

// Stat returns a FileInfo describing the named file.
func (f *DefaultFileSystem) Stat(name string) (os.FileInfo, error) {
	info, err := os.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	return info, nil
}

// ReadFile reads the named file and returns the contents.
func (f *DefaultFileSystem) ReadFile(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename) // #nosec G304 -- path comes from the catalog/config, not untrusted input
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return data, nil
}

// WriteFile writes data to the named file, creating it if necessary.
func (f *DefaultFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(filename, data, perm); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// WalkDir walks the file tree rooted at root, calling fn for each file or directory.
func (f *DefaultFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	if err := filepath.WalkDir(root, fn); err != nil {
		return fmt.Errorf("failed to walk directory tree %s: %w", root, err)
	}
	return nil
}

// IsNotExist reports whether the error indicates a missing file or directory.
func (f *DefaultFileSystem) IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
