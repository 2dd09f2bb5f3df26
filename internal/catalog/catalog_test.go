package catalog

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func hashLabel(n int64) string {
	return fmt.Sprintf("hash-%d", n)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedOKFiles(t *testing.T, s *Store, partition Partition, paths []string) {
	t.Helper()
	require.NoError(t, s.BulkInsertFiles(paths, partition))
	tasks, err := s.TakePreprocessBatch(len(paths))
	require.NoError(t, err)
	results := make([]PreprocessResult, len(tasks))
	for i, task := range tasks {
		base := task.Key * 4
		results[i] = PreprocessResult{
			Key: task.Key, PX: 100, PY: 100,
			Hash0:   hashLabel(base),
			Hash90:  hashLabel(base + 1),
			Hash180: hashLabel(base + 2),
			Hash270: hashLabel(base + 3),
		}
	}
	require.NoError(t, s.ApplyPreprocessResults(results, true))
}
