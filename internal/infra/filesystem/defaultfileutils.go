package filesystem

import (
	"errors"
	"fmt"
)

// DefaultFileUtils provides small filesystem helpers with dependency injection.
type DefaultFileUtils struct {
	fs FileSystem
}

// NewFileUtils creates a new FileUtils instance backed by fs.
func NewFileUtils(fs FileSystem) (FileUtils, error) {
	if fs == nil {
		return nil, errors.New("FileUtils requires a non-nil filesystem.FileSystem")
	}
	return &DefaultFileUtils{fs: fs}, nil
}

// Exists returns true if the file or directory at the given path exists.
func (fu *DefaultFileUtils) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := fu.fs.Stat(path)
	return err == nil
}

// EnsureDir creates a directory (and parents) if it does not already exist.
func (fu *DefaultFileUtils) EnsureDir(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}

	info, err := fu.fs.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists and is not a directory: %s", path)
		}
		return nil
	}
	if !fu.fs.IsNotExist(err) {
		return fmt.Errorf("failed to stat directory %s: %w", path, err)
	}
	if err := fu.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
