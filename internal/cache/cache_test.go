package cache

import (
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
)

func writePNG(t *testing.T, path string, w, h int, r, g, b uint8) {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
}

func TestImageCache_AtReportsGapsAndHits(t *testing.T) {
	t.Parallel()
	ic := NewImageCache(10, 3)
	_, ok := ic.At(11)
	assert.False(t, ok)

	ic.set(11, nil)
	_, ok = ic.At(11)
	assert.False(t, ok, "a nil matrix is still treated as a gap")

	_, ok = ic.At(999)
	assert.False(t, ok, "out of range key")
}

func TestLoader_BuildLoadsOriginalsWhenUncompressed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.png")
	p2 := filepath.Join(dir, "b.png")
	writePNG(t, p1, 8, 8, 10, 20, 30)
	writePNG(t, p2, 8, 8, 40, 50, 60)

	loader := &Loader{FS: filesystem.NewDefaultFileSystem(), TargetW: 8, TargetH: 8}
	entries := []catalog.FileEntry{{Key: 5, Path: p1}, {Key: 6, Path: p2}}
	ic, errs := loader.Build(5, 2, entries)

	assert.Empty(t, errs)
	m, ok := ic.At(5)
	require.True(t, ok)
	r, g, b := m.RGBAt(0, 0)
	assert.Equal(t, uint8(10), r)
	assert.Equal(t, uint8(20), g)
	assert.Equal(t, uint8(30), b)

	m2, ok := ic.At(6)
	require.True(t, ok)
	r, g, b = m2.RGBAt(0, 0)
	assert.Equal(t, uint8(40), r)
	assert.Equal(t, uint8(50), g)
	assert.Equal(t, uint8(60), b)
}

func TestLoader_BuildRecordsPerKeyErrorsWithoutAborting(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := filepath.Join(dir, "a.png")
	writePNG(t, good, 8, 8, 1, 2, 3)

	loader := &Loader{FS: filesystem.NewDefaultFileSystem(), TargetW: 8, TargetH: 8}
	entries := []catalog.FileEntry{
		{Key: 1, Path: good},
		{Key: 2, Path: filepath.Join(dir, "missing.png")},
	}
	ic, errs := loader.Build(1, 2, entries)

	require.Len(t, errs, 1)
	var ce *common.Error
	require.ErrorAs(t, errs[2], &ce)
	assert.Equal(t, common.KindIO, ce.Kind)

	_, ok := ic.At(1)
	assert.True(t, ok)
	_, ok = ic.At(2)
	assert.False(t, ok)
}

func TestLoader_BuildLoadsThumbnailsWhenCompressed(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	thumbDir := filepath.Join(dir, "thumbs")
	require.NoError(t, os.MkdirAll(thumbDir, 0o755))
	writePNG(t, filepath.Join(thumbDir, "3.png"), 4, 4, 7, 8, 9)

	loader := &Loader{FS: filesystem.NewDefaultFileSystem(), ThumbDir: thumbDir, Compress: true}
	entries := []catalog.FileEntry{{Key: 3, Path: "/original/does/not/matter.png"}}
	ic, errs := loader.Build(3, 1, entries)

	assert.Empty(t, errs)
	m, ok := ic.At(3)
	require.True(t, ok)
	r, g, b := m.RGBAt(0, 0)
	assert.Equal(t, uint8(7), r)
	assert.Equal(t, uint8(8), g)
	assert.Equal(t, uint8(9), b)
}
