package pipeline

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
)

func TestRunIndex_FiltersExtensionsAndIgnoredDirs(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	d, dir := newTestDriver(t, cfg)

	writePNG(t, filepath.Join(dir, "root", "a.png"), 4, 4, 1, 2, 3)
	writePNG(t, filepath.Join(dir, "root", "b.jpg"), 4, 4, 1, 2, 3)
	writePNG(t, filepath.Join(dir, "root", "notes.txt"), 4, 4, 1, 2, 3) // wrong extension, still a valid PNG
	writePNG(t, filepath.Join(dir, "root", ".temp_thumb", "1.png"), 4, 4, 1, 2, 3)
	writePNG(t, filepath.Join(dir, "root", "sub", "c.png"), 4, 4, 1, 2, 3)

	d.cfg.RootA = filepath.Join(dir, "root")

	require.NoError(t, d.runIndex(context.Background()))

	stats, err := d.store.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalFiles) // a.png, b.jpg, sub/c.png

	progress, _, err := d.store.GetProgress()
	require.NoError(t, err)
	assert.Equal(t, catalog.IndexedDirs, progress)
}

func TestRunIndex_BothRootsIndexUnderDistinctPartitions(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	d, dir := newTestDriver(t, cfg)

	writePNG(t, filepath.Join(dir, "a", "1.png"), 4, 4, 1, 2, 3)
	writePNG(t, filepath.Join(dir, "b", "2.png"), 4, 4, 1, 2, 3)
	writePNG(t, filepath.Join(dir, "b", "3.png"), 4, 4, 1, 2, 3)

	d.cfg.RootA = filepath.Join(dir, "a")
	d.cfg.RootB = filepath.Join(dir, "b")

	require.NoError(t, d.runIndex(context.Background()))

	countA, err := d.store.CountPartition(catalog.PartitionA)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countA)

	countB, err := d.store.CountPartition(catalog.PartitionB)
	require.NoError(t, err)
	assert.EqualValues(t, 2, countB)
}

func TestRunIndex_RespectsConfiguredFlushBatchSize(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	cfg.IndexBatchSizeDir = 1 // force a flush after every single file
	d, dir := newTestDriver(t, cfg)

	for i := 0; i < 5; i++ {
		writePNG(t, filepath.Join(dir, "root", strconv.Itoa(i)+".png"), 4, 4, 1, 2, 3)
	}
	d.cfg.RootA = filepath.Join(dir, "root")

	require.NoError(t, d.runIndex(context.Background()))

	stats, err := d.store.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalFiles)
}

