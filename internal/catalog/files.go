package catalog

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// BulkInsertFiles appends one row per path to the files table under the
// given partition, ignoring duplicates on (path, partition) as required
// by spec.md §4.1. Append-only: it never updates an existing row.
func (s *Store) BulkInsertFiles(paths []string, partition Partition) error {
	if len(paths) == 0 {
		return nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO files(path, filename, partition) VALUES (?, ?, ?)
		ON CONFLICT(path, partition) DO NOTHING`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare file insert", err)
	}
	defer stmt.Close()

	for _, p := range paths {
		if _, err := stmt.Exec(p, filepath.Base(p), string(partition)); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "insert file "+p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return common.NewError(common.KindCatalog, "commit file insert", err)
	}
	return nil
}

// TakePreprocessBatch atomically claims up to n rows with success=
// Unprocessed, flipping them to Processing so no two callers (and, in a
// resumed run, no stale in-flight row) can observe the same task.
func (s *Store) TakePreprocessBatch(n int) ([]PreprocessTask, error) {
	if n <= 0 {
		return nil, nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(`SELECT key, path FROM files WHERE success = ? ORDER BY key LIMIT ?`,
		Unprocessed, n)
	if err != nil {
		_ = tx.Rollback()
		return nil, common.NewError(common.KindCatalog, "select preprocess batch", err)
	}
	var tasks []PreprocessTask
	for rows.Next() {
		var t PreprocessTask
		if err := rows.Scan(&t.Key, &t.Path); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return nil, common.NewError(common.KindCatalog, "scan preprocess task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return nil, common.NewError(common.KindCatalog, "iterate preprocess batch", err)
	}
	rows.Close()

	upd, err := tx.Prepare(`UPDATE files SET success = ? WHERE key = ?`)
	if err != nil {
		_ = tx.Rollback()
		return nil, common.NewError(common.KindCatalog, "prepare claim update", err)
	}
	for _, t := range tasks {
		if _, err := upd.Exec(Processing, t.Key); err != nil {
			upd.Close()
			_ = tx.Rollback()
			return nil, common.NewError(common.KindCatalog, "claim task", err)
		}
	}
	upd.Close()

	if err := tx.Commit(); err != nil {
		return nil, common.NewError(common.KindCatalog, "commit claim", err)
	}
	return tasks, nil
}

// ApplyPreprocessResults splits results into successes and errors and
// updates success/px/py/hash fk columns accordingly. hasHash controls
// whether the four hash columns are populated from the result's hash
// strings (interned via the hash table) or left null.
func (s *Store) ApplyPreprocessResults(results []PreprocessResult, hasHash bool) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}

	okStmt, err := tx.Prepare(`UPDATE files SET success = ?, px = ?, py = ?,
		hash_0 = ?, hash_90 = ?, hash_180 = ?, hash_270 = ? WHERE key = ?`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare success update", err)
	}
	defer okStmt.Close()

	errStmt, err := tx.Prepare(`UPDATE files SET success = ?, error = ? WHERE key = ?`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare error update", err)
	}
	defer errStmt.Close()

	for _, r := range results {
		if r.Err != nil {
			encoded := common.WrapErrorText(r.Err.Error())
			if _, err := errStmt.Exec(Errored, encoded, r.Key); err != nil {
				_ = tx.Rollback()
				return common.NewError(common.KindCatalog, "record preprocess error", err)
			}
			continue
		}

		var h0, h90, h180, h270 sql.NullInt64
		if hasHash {
			keys, err := s.internHashesForResult(tx, r)
			if err != nil {
				_ = tx.Rollback()
				return err
			}
			h0 = sql.NullInt64{Int64: keys[0], Valid: true}
			h90 = sql.NullInt64{Int64: keys[1], Valid: true}
			h180 = sql.NullInt64{Int64: keys[2], Valid: true}
			h270 = sql.NullInt64{Int64: keys[3], Valid: true}
		}

		if _, err := okStmt.Exec(OK, r.PX, r.PY, h0, h90, h180, h270, r.Key); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "record preprocess success", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return common.NewError(common.KindCatalog, "commit preprocess results", err)
	}
	return nil
}

// internHashesForResult interns the four rotation hashes of one result,
// each with a reference-count delta of 1.
func (s *Store) internHashesForResult(tx *sql.Tx, r PreprocessResult) (keys [4]int64, err error) {
	texts := [4]string{r.Hash0, r.Hash90, r.Hash180, r.Hash270}
	for i, text := range texts {
		keys[i], err = s.internHash(tx, text, 1)
		if err != nil {
			return keys, common.NewError(common.KindCatalog, "intern rotation hash", err)
		}
	}
	return keys, nil
}

// ResetInFlight flips every Processing row back to Unprocessed. Called on
// resume so a crash mid first-loop does not strand claimed rows forever,
// per the resume-safety testable property.
func (s *Store) ResetInFlight() error {
	tx, err := s.beginTx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE files SET success = ? WHERE success = ?`, Unprocessed, Processing); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "reset in-flight rows", err)
	}
	if err := tx.Commit(); err != nil {
		return common.NewError(common.KindCatalog, "commit reset in-flight", err)
	}
	return nil
}

// GetFilesByKeyRange returns the path for every key in [lower, lower+size),
// ordered by key, for filling a block-scoped image cache over a
// contiguous key range (spec.md §4.5). A missing key (a gap left by a
// prior partition swap or renumbering bug) is simply absent from the
// result; callers index by key, not by position.
func (s *Store) GetFilesByKeyRange(lower, size int64) ([]FileEntry, error) {
	if size <= 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT key, path FROM files WHERE key >= ? AND key < ? ORDER BY key`,
		lower, lower+size)
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "query files by key range", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		var e FileEntry
		if err := rows.Scan(&e.Key, &e.Path); err != nil {
			return nil, common.NewError(common.KindCatalog, "scan file by key range", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.KindCatalog, "iterate files by key range", err)
	}
	return entries, nil
}

// CountPartition returns the number of file rows in the given partition.
func (s *Store) CountPartition(partition Partition) (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE partition = ?`, partition).Scan(&n)
	if err != nil {
		return 0, common.NewError(common.KindCatalog, "count partition", err)
	}
	return n, nil
}

// DenseRenumberKeys shifts file key values so the minimum becomes 0,
// called once between indexing and the first loop. sqlite's
// INTEGER PRIMARY KEY cannot be reassigned via UPDATE while preserving
// rowid aliasing cleanly across all rows at once, so this rebuilds the
// table through a temp copy (SwapPartitions, by contrast, needs only a
// single CASE update).
func (s *Store) DenseRenumberKeys() error {
	tx, err := s.beginTx()
	if err != nil {
		return err
	}

	var minKey sql.NullInt64
	if err := tx.QueryRow(`SELECT MIN(key) FROM files`).Scan(&minKey); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "find min key", err)
	}
	if !minKey.Valid || minKey.Int64 == 0 {
		return commitOrWrap(tx, "dense renumber keys (no-op)")
	}

	if _, err := tx.Exec(`CREATE TEMP TABLE files_renum AS
		SELECT key - ? AS key, path, filename, partition, success, px, py, error,
		       hash_0, hash_90, hash_180, hash_270 FROM files ORDER BY key`, minKey.Int64); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "build renumbered temp table", err)
	}
	if _, err := tx.Exec(`DELETE FROM files`); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "clear files", err)
	}
	if _, err := tx.Exec(`INSERT INTO files SELECT * FROM files_renum`); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "repopulate files", err)
	}
	if _, err := tx.Exec(`DROP TABLE files_renum`); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "drop temp table", err)
	}

	return commitOrWrap(tx, "commit dense renumber")
}

// SwapPartitions exchanges the A/B partition labels of every file row,
// used when |B| > |A| to shrink the planner's outer loop. A single
// CASE-based UPDATE never transiently violates the unique (path,
// partition) constraint since both labels change atomically per row.
func (s *Store) SwapPartitions() error {
	tx, err := s.beginTx()
	if err != nil {
		return err
	}
	_, err = tx.Exec(fmt.Sprintf(`UPDATE files SET partition = CASE partition
		WHEN '%s' THEN '%s' ELSE '%s' END`, PartitionA, PartitionB, PartitionA))
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "swap partition labels", err)
	}
	return commitOrWrap(tx, "commit swap partitions")
}

// commitOrWrap commits tx, wrapping any failure as a CatalogError tagged
// with op.
func commitOrWrap(tx *sql.Tx, op string) error {
	if err := tx.Commit(); err != nil {
		return common.NewError(common.KindCatalog, op, err)
	}
	return nil
}
