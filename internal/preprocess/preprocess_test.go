package preprocess

import (
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/log"
)

func silentLogger(t *testing.T) log.Logger {
	t.Helper()
	l, err := log.NewConsoleLogger(log.ERROR + 1)
	require.NoError(t, err)
	return l
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8((x + y) % 256), G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestProcess_DecodesResizesAndHashes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", 32, 20)

	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8, ComputeHash: true}
	result := process(fs, opts, catalog.PreprocessTask{Key: 1, Path: path})

	require.NoError(t, result.Err)
	assert.Equal(t, int64(1), result.Key)
	assert.Equal(t, 32, result.PX)
	assert.Equal(t, 20, result.PY)
	assert.NotEmpty(t, result.Hash0)
	assert.NotEmpty(t, result.Hash90)
	assert.NotEmpty(t, result.Hash180)
	assert.NotEmpty(t, result.Hash270)
}

func TestProcess_WritesThumbnailWhenCompressSet(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", 16, 16)
	thumbDir := filepath.Join(dir, "thumbs")

	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8, Compress: true, ThumbDir: thumbDir}
	result := process(fs, opts, catalog.PreprocessTask{Key: 42, Path: path})

	require.NoError(t, result.Err)
	info, err := os.Stat(ThumbnailPath(thumbDir, 42))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestProcess_SkipsResizeWhenAlreadyTargetSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", 8, 8)

	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8}
	result := process(fs, opts, catalog.PreprocessTask{Key: 1, Path: path})

	require.NoError(t, result.Err)
	assert.Equal(t, 8, result.PX)
	assert.Equal(t, 8, result.PY)
}

func TestProcess_MissingFileYieldsIOError(t *testing.T) {
	t.Parallel()
	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8}
	result := process(fs, opts, catalog.PreprocessTask{Key: 1, Path: "/does/not/exist.png"})

	require.Error(t, result.Err)
	var ce *common.Error
	require.ErrorAs(t, result.Err, &ce)
	assert.Equal(t, common.KindIO, ce.Kind)
}

func TestProcess_CorruptFileYieldsDecodeError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8}
	result := process(fs, opts, catalog.PreprocessTask{Key: 1, Path: path})

	require.Error(t, result.Err)
	var ce *common.Error
	require.ErrorAs(t, result.Err, &ce)
	assert.Equal(t, common.KindDecode, ce.Kind)
}

func TestRunPool_ProcessesAllTasksAndClosesResults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	paths := []string{
		writePNG(t, dir, "a.png", 8, 8),
		writePNG(t, dir, "b.png", 8, 8),
		writePNG(t, dir, "c.png", 8, 8),
	}

	tasks := make(chan catalog.PreprocessTask, len(paths))
	for i, p := range paths {
		tasks <- catalog.PreprocessTask{Key: int64(i + 1), Path: p}
	}
	close(tasks)

	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8, ComputeHash: true}
	results := RunPool(context.Background(), 2, fs, opts, silentLogger(t), tasks)

	seen := make(map[int64]bool)
	for r := range results {
		require.NoError(t, r.Err)
		seen[r.Key] = true
	}
	assert.Len(t, seen, 3)
}

func TestRunPool_ContinuesPastPerTaskErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", 8, 8)

	tasks := make(chan catalog.PreprocessTask, 2)
	tasks <- catalog.PreprocessTask{Key: 1, Path: good}
	tasks <- catalog.PreprocessTask{Key: 2, Path: "/missing.png"}
	close(tasks)

	fs := filesystem.NewDefaultFileSystem()
	opts := Options{TargetWidth: 8, TargetHeight: 8}
	results := RunPool(context.Background(), 1, fs, opts, silentLogger(t), tasks)

	var okCount, errCount int
	for r := range results {
		if r.Err != nil {
			errCount++
		} else {
			okCount++
		}
	}
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, errCount)
}

func TestValidateOptions(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateOptions(Options{TargetWidth: 8, TargetHeight: 8}))

	err := ValidateOptions(Options{TargetWidth: 0, TargetHeight: 8})
	require.Error(t, err)

	err = ValidateOptions(Options{TargetWidth: 8, TargetHeight: 8, Compress: true})
	require.Error(t, err)
}
