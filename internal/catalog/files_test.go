package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkInsertFiles_IgnoresDuplicates(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg", "/b.jpg"}, PartitionA))
	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg", "/c.jpg"}, PartitionA))

	n, err := s.CountPartition(PartitionA)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestTakePreprocessBatch_ClaimsDistinctRows(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg", "/b.jpg", "/c.jpg"}, PartitionA))

	first, err := s.TakePreprocessBatch(2)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := s.TakePreprocessBatch(2)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	third, err := s.TakePreprocessBatch(2)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestApplyPreprocessResults_SplitsSuccessAndError(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg", "/b.jpg"}, PartitionA))
	tasks, err := s.TakePreprocessBatch(2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	results := []PreprocessResult{
		{Key: tasks[0].Key, PX: 10, PY: 20, Hash0: "h0", Hash90: "h1", Hash180: "h2", Hash270: "h3"},
		{Key: tasks[1].Key, Err: assertError("decode failed")},
	}
	require.NoError(t, s.ApplyPreprocessResults(results, true))

	n, err := s.CountPartition(PartitionA)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	total, err := s.HashReferenceIntegrity()
	require.NoError(t, err)
	assert.EqualValues(t, 4, total) // one OK file * 4 rotations
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func assertError(msg string) error { return simpleErr(msg) }

func TestResetInFlight_RestoresProcessingRows(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg"}, PartitionA))
	_, err := s.TakePreprocessBatch(1)
	require.NoError(t, err)

	// Simulate a crash mid first-loop: the row is stuck Processing.
	none, err := s.TakePreprocessBatch(1)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, s.ResetInFlight())

	reclaimed, err := s.TakePreprocessBatch(1)
	require.NoError(t, err)
	assert.Len(t, reclaimed, 1)
}

func TestDenseRenumberKeys_ShiftsMinimumToZero(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg"}, PartitionA))
	tasks, err := s.TakePreprocessBatch(1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, s.DenseRenumberKeys())

	var minKey int64
	require.NoError(t, s.db.QueryRow(`SELECT MIN(key) FROM files`).Scan(&minKey))
	assert.EqualValues(t, 0, minKey)
}

func TestGetFilesByKeyRange_ReturnsContiguousSlice(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/a.jpg", "/b.jpg", "/c.jpg", "/d.jpg"}, PartitionA))
	require.NoError(t, s.DenseRenumberKeys())

	entries, err := s.GetFilesByKeyRange(1, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.EqualValues(t, 1, entries[0].Key)
	assert.EqualValues(t, 2, entries[1].Key)
}

func TestSwapPartitions_ExchangesLabels(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/a1.jpg"}, PartitionA))
	require.NoError(t, s.BulkInsertFiles([]string{"/b1.jpg", "/b2.jpg", "/b3.jpg"}, PartitionB))

	require.NoError(t, s.SwapPartitions())

	aCount, err := s.CountPartition(PartitionA)
	require.NoError(t, err)
	bCount, err := s.CountPartition(PartitionB)
	require.NoError(t, err)
	assert.EqualValues(t, 3, aCount)
	assert.EqualValues(t, 1, bCount)
}
