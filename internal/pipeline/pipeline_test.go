package pipeline

import (
	stdimage "image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/clock"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/log"
)

func silentLogger(t *testing.T) log.Logger {
	t.Helper()
	l, err := log.NewConsoleLogger(log.ERROR + 1)
	require.NoError(t, err)
	return l
}

func writePNG(t *testing.T, path string, w, h int, r, g, b uint8) {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
}

// newTestDriver wires a Driver against a fresh temp directory: a real
// sqlite catalog, the default OS filesystem, and a silent logger, mirroring
// the collaborator set main.go assembles in production.
func newTestDriver(t *testing.T, cfg catalog.Config) (*Driver, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	taskPath := filepath.Join(dir, "task.json")
	thumbDir := filepath.Join(dir, ".temp_thumb")
	fs := filesystem.NewDefaultFileSystem()

	d := New(store, fs, silentLogger(t), clock.NewDefaultClock(), taskPath, thumbDir, cfg)
	return d, dir
}
