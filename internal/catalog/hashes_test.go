package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPreprocessResults_InternsRepeatedHashOnce(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	require.NoError(t, s.BulkInsertFiles([]string{"/x.jpg", "/y.jpg"}, PartitionA))
	tasks, err := s.TakePreprocessBatch(2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	results := make([]PreprocessResult, len(tasks))
	for i, task := range tasks {
		results[i] = PreprocessResult{
			Key: task.Key, PX: 10, PY: 10,
			Hash0: "shared", Hash90: "shared", Hash180: "shared", Hash270: "shared",
		}
	}
	require.NoError(t, s.ApplyPreprocessResults(results, true))

	var distinctHashes int64
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM hashes`).Scan(&distinctHashes))
	assert.EqualValues(t, 1, distinctHashes)

	var count int64
	require.NoError(t, s.db.QueryRow(`SELECT count FROM hashes WHERE hash = 'shared'`).Scan(&count))
	// Each of 2 files references the same hash text 4 times (one per rotation).
	assert.EqualValues(t, 8, count)
}
