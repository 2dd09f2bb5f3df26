package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
)

func TestRunSizing_SwapsPartitionsWhenBLarger(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	d, _ := newTestDriver(t, cfg)
	d.cfg.RootA = "/a"
	d.cfg.RootB = "/b"

	require.NoError(t, d.store.BulkInsertFiles([]string{"/a/1.png"}, catalog.PartitionA))
	require.NoError(t, d.store.BulkInsertFiles([]string{"/b/1.png", "/b/2.png"}, catalog.PartitionB))

	require.NoError(t, d.runSizing())

	// B (2 files) was larger than A (1 file), so partitions and root
	// labels must have swapped.
	assert.Equal(t, "/b", d.cfg.RootA)
	assert.Equal(t, "/a", d.cfg.RootB)

	countA, err := d.store.CountPartition(catalog.PartitionA)
	require.NoError(t, err)
	assert.EqualValues(t, 2, countA)

	progress, _, err := d.store.GetProgress()
	require.NoError(t, err)
	assert.Equal(t, catalog.FirstLoopInProgress, progress)
}

func TestRunSizing_ComputesAndPersistsRuntimeOptions(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	cfg.FirstLoop.CPUProc = 2
	d, _ := newTestDriver(t, cfg)

	paths := make([]string, 3)
	for i := range paths {
		paths[i] = filepath.Join("/root", string(rune('a'+i))+".png")
	}
	require.NoError(t, d.store.BulkInsertFiles(paths, catalog.PartitionA))

	require.NoError(t, d.runSizing())

	// total=3 >= cpu=2 selects parallel execution; total/cpu=1 < 40 keeps
	// batching disabled (one batch covering every file).
	assert.True(t, d.cfg.FirstLoop.Parallel)
	assert.Equal(t, 3, d.cfg.FirstLoop.BatchSize)

	tf, ok, err := catalog.LoadTaskFile(d.taskPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tf.Config.FirstLoop.Parallel)
	assert.Equal(t, 3, tf.Config.FirstLoop.BatchSize)
}

func TestRunFirstLoop_ProcessesAllFilesAndAdvancesProgress(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	cfg.FirstLoop.BatchSize = 2
	cfg.FirstLoop.CPUProc = 2
	d, dir := newTestDriver(t, cfg)

	for i := 0; i < 5; i++ {
		writePNG(t, filepath.Join(dir, "img", string(rune('a'+i))+".png"), 8, 8, 1, 2, 3)
	}
	require.NoError(t, d.runIndexForTest(filepath.Join(dir, "img")))
	require.NoError(t, d.runSizing())
	require.NoError(t, d.runFirstLoop(context.Background()))

	stats, err := d.store.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalFiles)
	assert.EqualValues(t, 5, stats.ProcessedFiles)

	progress, _, err := d.store.GetProgress()
	require.NoError(t, err)
	assert.Equal(t, catalog.FirstLoopDone, progress)
}

func TestRunFirstLoop_ResetsStrandedInFlightRowsOnResume(t *testing.T) {
	t.Parallel()
	cfg := catalog.DefaultConfig()
	d, dir := newTestDriver(t, cfg)
	path := filepath.Join(dir, "img", "a.png")
	writePNG(t, path, 8, 8, 1, 2, 3)

	require.NoError(t, d.store.BulkInsertFiles([]string{path}, catalog.PartitionA))
	tasks, err := d.store.TakePreprocessBatch(1) // leaves the row Processing, simulating a crash
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, d.runFirstLoop(context.Background()))

	stats, err := d.store.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ProcessedFiles)
}

// runIndexForTest is a thin helper so first-loop tests can seed the
// catalog through the real indexing path without depending on index_test.go.
func (d *Driver) runIndexForTest(root string) error {
	d.cfg.RootA = root
	return d.runIndex(context.Background())
}
