package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFileSystem_CreateOpenReadWrite(t *testing.T) {
	t.Parallel()
	fs := NewDefaultFileSystem()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")

	require.NoError(t, fs.WriteFile(path, []byte("hello"), 0o644))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	f, err := fs.Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestDefaultFileSystem_StatIsNotExist(t *testing.T) {
	t.Parallel()
	fs := NewDefaultFileSystem()
	dir := t.TempDir()

	_, err := fs.Stat(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, fs.IsNotExist(err))
}

func TestDefaultFileSystem_MkdirAllReadDir(t *testing.T) {
	t.Parallel()
	fs := NewDefaultFileSystem()
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")

	require.NoError(t, fs.MkdirAll(nested, 0o755))
	require.NoError(t, fs.WriteFile(filepath.Join(nested, "f.txt"), []byte("x"), 0o644))

	entries, err := fs.ReadDir(nested)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f.txt", entries[0].Name())
}

func TestDefaultFileSystem_WalkDir(t *testing.T) {
	t.Parallel()
	fs := NewDefaultFileSystem()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "img.jpg"), []byte("x"), 0o644))

	var seen []string
	err := fs.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			seen = append(seen, path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestDefaultFileSystem_RemoveRemoveAll(t *testing.T) {
	t.Parallel()
	fs := NewDefaultFileSystem()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, fs.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, fs.Remove(path))

	nested := filepath.Join(dir, "tree")
	require.NoError(t, fs.MkdirAll(nested, 0o755))
	require.NoError(t, fs.RemoveAll(nested))
	_, err := fs.Stat(nested)
	require.Error(t, err)
}
