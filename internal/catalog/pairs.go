package catalog

import (
	"database/sql"
	"math"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// PrepopulatePairs inserts one row per candidate pair, assigns block
// coordinates, and ranks distinct blocks into dense block keys starting
// at startBlockKey (the driver's persisted cache_index, so resume skips
// completed blocks). hasB selects two-partition mode (A×B) over
// single-partition mode (OK files, key_a < key_b); block ordering is
// row-major for two partitions and diagonal-major for one, per spec.md
// §4.1.
func (s *Store) PrepopulatePairs(blockSize int64, hasB bool, startBlockKey int64) error {
	if blockSize <= 0 {
		return common.NewError(common.KindConfig, "prepopulate pairs: block size must be positive", nil)
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}

	if hasB {
		_, err := tx.Exec(`INSERT INTO pairs(key_a, key_b)
			SELECT a.key, b.key FROM files a, files b
			WHERE a.partition = ? AND b.partition = ? AND a.success = ? AND b.success = ?
			ORDER BY a.key, b.key`, PartitionA, PartitionB, OK, OK)
		if err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "insert two-partition pairs", err)
		}
	} else {
		_, err := tx.Exec(`INSERT INTO pairs(key_a, key_b)
			SELECT a.key, b.key FROM files a, files b
			WHERE a.success = ? AND b.success = ? AND a.key < b.key
			ORDER BY a.key, b.key`, OK, OK)
		if err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "insert single-partition pairs", err)
		}
	}

	var minKeyB int64
	if hasB {
		var v sql.NullInt64
		if err := tx.QueryRow(`SELECT MIN(key) FROM files WHERE partition = ? AND success = ?`, PartitionB, OK).Scan(&v); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "find min key in partition B", err)
		}
		if v.Valid {
			minKeyB = v.Int64
		}
	}

	if hasB {
		if _, err := tx.Exec(`UPDATE pairs SET block_a = key_a / ?, block_b = (key_b - ?) / ?`,
			blockSize, minKeyB, blockSize); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "assign block coordinates", err)
		}
	} else {
		if _, err := tx.Exec(`UPDATE pairs SET block_a = key_a / ?, block_b = key_b / ?`,
			blockSize, blockSize); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "assign block coordinates", err)
		}
	}

	orderExpr := "block_a, block_b" // row-major, two-partition mode
	if !hasB {
		orderExpr = "(block_b - block_a), (block_b + block_a)" // diagonal-major
	}

	if _, err := tx.Exec(`CREATE TEMP TABLE block_rank AS
		SELECT block_a, block_b,
		       (DENSE_RANK() OVER (ORDER BY ` + orderExpr + `) - 1 + ?) AS block_key
		FROM (SELECT DISTINCT block_a, block_b FROM pairs)`, startBlockKey); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "rank blocks", err)
	}
	if _, err := tx.Exec(`UPDATE pairs SET block_key = (
		SELECT block_rank.block_key FROM block_rank
		WHERE block_rank.block_a = pairs.block_a AND block_rank.block_b = pairs.block_b)`); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "apply block keys", err)
	}
	if _, err := tx.Exec(`DROP TABLE block_rank`); err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "drop block rank temp table", err)
	}

	return commitOrWrap(tx, "commit prepopulate pairs")
}

// BlockExtent is the rectangular span of catalog keys one block covers.
type BlockExtent struct {
	LowerX, LowerY int64
	SizeX, SizeY   int64
}

// GetBlockExtent returns the key range a block covers, used by the batch
// loader to size its cache fill.
func (s *Store) GetBlockExtent(blockKey int64) (BlockExtent, error) {
	var minA, maxA, minB, maxB sql.NullInt64
	row := s.db.QueryRow(`SELECT MIN(key_a), MAX(key_a), MIN(key_b), MAX(key_b)
		FROM pairs WHERE block_key = ?`, blockKey)
	if err := row.Scan(&minA, &maxA, &minB, &maxB); err != nil {
		return BlockExtent{}, common.NewError(common.KindCatalog, "get block extent", err)
	}
	if !minA.Valid {
		return BlockExtent{}, common.NewError(common.KindCatalog, "block has no pairs", nil)
	}
	return BlockExtent{
		LowerX: minA.Int64,
		LowerY: minB.Int64,
		SizeX:  maxA.Int64 - minA.Int64 + 1,
		SizeY:  maxB.Int64 - minB.Int64 + 1,
	}, nil
}

// HasBlock reports whether any pair row carries blockKey, regardless of
// resolution state. The second-loop driver uses this (rather than an
// empty GetBlockTasks/GetItemBlock result, which a fully short-circuited
// or already-resumed block also produces) to tell "no more blocks exist"
// apart from "this block exists but has nothing left to dispatch".
func (s *Store) HasBlock(blockKey int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM pairs WHERE block_key = ?)`, blockKey).Scan(&exists)
	if err != nil {
		return false, common.NewError(common.KindCatalog, "check block existence", err)
	}
	return exists, nil
}

// BlockTask is one key_a's span within a block: the anchoring pair_key
// (the row holding the maximum key_b for that key_a) and that max key_b,
// from which the batch comparator walks descending.
type BlockTask struct {
	PairKey int64
	KeyA    int64
	MaxKeyB int64
}

// GetBlockTasks returns one task per distinct key_a in the block, for
// the batch-mode comparator.
func (s *Store) GetBlockTasks(blockKey int64) ([]BlockTask, error) {
	rows, err := s.db.Query(`SELECT key, key_a, key_b FROM (
		SELECT key, key_a, key_b,
		       ROW_NUMBER() OVER (PARTITION BY key_a ORDER BY key_b DESC) AS rn
		FROM pairs WHERE block_key = ?
	) WHERE rn = 1 ORDER BY key_a`, blockKey)
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "get block tasks", err)
	}
	defer rows.Close()

	var tasks []BlockTask
	for rows.Next() {
		var t BlockTask
		if err := rows.Scan(&t.PairKey, &t.KeyA, &t.MaxKeyB); err != nil {
			return nil, common.NewError(common.KindCatalog, "scan block task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.KindCatalog, "iterate block tasks", err)
	}
	return tasks, nil
}

// ItemTask is one candidate pair ready for item-mode comparison.
type ItemTask struct {
	PairKey      int64
	KeyA, KeyB   int64
	PathA, PathB string
	BlockKey     int64
}

// GetItemBlock returns every unresolved pair in a block, joined against
// file paths, for the item-mode comparator. includeBlockKey controls
// whether BlockKey is populated (callers that already know the block
// they asked for can skip it).
func (s *Store) GetItemBlock(blockKey int64, includeBlockKey bool) ([]ItemTask, error) {
	rows, err := s.db.Query(`SELECT p.key, p.key_a, p.key_b, fa.path, fb.path, p.block_key
		FROM pairs p
		JOIN files fa ON fa.key = p.key_a
		JOIN files fb ON fb.key = p.key_b
		WHERE p.block_key = ? AND p.success = ?
		ORDER BY p.key_a, p.key_b`, blockKey, Unprocessed)
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "get item block", err)
	}
	defer rows.Close()

	var tasks []ItemTask
	for rows.Next() {
		var t ItemTask
		if err := rows.Scan(&t.PairKey, &t.KeyA, &t.KeyB, &t.PathA, &t.PathB, &t.BlockKey); err != nil {
			return nil, common.NewError(common.KindCatalog, "scan item task", err)
		}
		if !includeBlockKey {
			t.BlockKey = 0
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewError(common.KindCatalog, "iterate item block", err)
	}
	return tasks, nil
}

// RecordBlockResult writes a descending run of scores for one key_a: dif
// values are indexed by descending key_b starting at maxKeyB, per the
// ordering rule in spec.md §5.
func (s *Store) RecordBlockResult(keyA, maxKeyB int64, dif []float32) error {
	if len(dif) == 0 {
		return nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`UPDATE pairs SET dif = ?, success = ? WHERE key_a = ? AND key_b = ?`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare block result update", err)
	}
	defer stmt.Close()

	for i, d := range dif {
		keyB := maxKeyB - int64(i)
		if _, err := stmt.Exec(float64(d), OK, keyA, keyB); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "write block result", err)
		}
	}
	return commitOrWrap(tx, "commit block result")
}

// RecordItemResult writes scattered per-pair scores, one row per entry.
func (s *Store) RecordItemResult(keys []int64, dif []float32) error {
	if len(keys) != len(dif) {
		return common.NewError(common.KindCatalog, "record item result: length mismatch", nil)
	}
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`UPDATE pairs SET dif = ?, success = ? WHERE key = ?`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare item result update", err)
	}
	defer stmt.Close()

	for i, k := range keys {
		if _, err := stmt.Exec(float64(dif[i]), OK, k); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "write item result", err)
		}
	}
	return commitOrWrap(tx, "commit item result")
}

// RecordBatchErrors flips success=Errored and records a pair_errors row
// for specific (keyA, keyB) entries within a block-mode comparison span,
// addressed by coordinate rather than by the pairs table's own key since
// a batch worker never looks that key up per entry (spec.md §4.6).
func (s *Store) RecordBatchErrors(keyA int64, errsByKeyB map[int64]string) error {
	if len(errsByKeyB) == 0 {
		return nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}
	updStmt, err := tx.Prepare(`UPDATE pairs SET success = ? WHERE key_a = ? AND key_b = ?`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare batch pair error update", err)
	}
	defer updStmt.Close()
	insStmt, err := tx.Prepare(`INSERT INTO pair_errors(key, error)
		SELECT key, ? FROM pairs WHERE key_a = ? AND key_b = ?
		ON CONFLICT(key) DO UPDATE SET error = excluded.error`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare batch pair error insert", err)
	}
	defer insStmt.Close()

	for keyB, msg := range errsByKeyB {
		if _, err := updStmt.Exec(Errored, keyA, keyB); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "flip batch pair error state", err)
		}
		if _, err := insStmt.Exec(common.WrapErrorText(msg), keyA, keyB); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "insert batch pair error", err)
		}
	}
	return commitOrWrap(tx, "commit batch pair errors")
}

// RecordErrors flips success=Errored for every key in errs and inserts a
// base64-wrapped message into the pair_errors side table.
func (s *Store) RecordErrors(errs map[int64]string) error {
	if len(errs) == 0 {
		return nil
	}
	tx, err := s.beginTx()
	if err != nil {
		return err
	}
	updStmt, err := tx.Prepare(`UPDATE pairs SET success = ? WHERE key = ?`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare pair error update", err)
	}
	defer updStmt.Close()
	insStmt, err := tx.Prepare(`INSERT INTO pair_errors(key, error) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET error = excluded.error`)
	if err != nil {
		_ = tx.Rollback()
		return common.NewError(common.KindCatalog, "prepare pair error insert", err)
	}
	defer insStmt.Close()

	for key, msg := range errs {
		if _, err := updStmt.Exec(Errored, key); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "flip pair error state", err)
		}
		if _, err := insStmt.Exec(key, common.WrapErrorText(msg)); err != nil {
			_ = tx.Rollback()
			return common.NewError(common.KindCatalog, "insert pair error", err)
		}
	}
	return commitOrWrap(tx, "commit pair errors")
}

// VerifyItemBlock reports whether every pair in the block has been
// resolved (success != Unprocessed), the condition the driver's cache
// pruning loop checks in item mode.
func (s *Store) VerifyItemBlock(blockKey int64) (bool, error) {
	var remaining int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pairs WHERE block_key = ? AND success = ?`,
		blockKey, Unprocessed).Scan(&remaining)
	if err != nil {
		return false, common.NewError(common.KindCatalog, "verify item block", err)
	}
	return remaining == 0, nil
}

// MarkHashShortCircuit marks, without dispatching to the comparator,
// every unresolved pair whose files share any matching rotation hash:
// dif=0, success=OK. Only valid in item mode. Returns the number of rows
// marked.
func (s *Store) MarkHashShortCircuit() (int64, error) {
	tx, err := s.beginTx()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`UPDATE pairs SET dif = 0, success = ?
		WHERE success = ? AND EXISTS (
			SELECT 1 FROM files fa, files fb
			WHERE fa.key = pairs.key_a AND fb.key = pairs.key_b
			AND (
				(fa.hash_0 IS NOT NULL AND fa.hash_0 IN (fb.hash_0, fb.hash_90, fb.hash_180, fb.hash_270)) OR
				(fa.hash_90 IS NOT NULL AND fa.hash_90 IN (fb.hash_0, fb.hash_90, fb.hash_180, fb.hash_270)) OR
				(fa.hash_180 IS NOT NULL AND fa.hash_180 IN (fb.hash_0, fb.hash_90, fb.hash_180, fb.hash_270)) OR
				(fa.hash_270 IS NOT NULL AND fa.hash_270 IN (fb.hash_0, fb.hash_90, fb.hash_180, fb.hash_270))
			)
		)`, OK, Unprocessed)
	if err != nil {
		_ = tx.Rollback()
		return 0, common.NewError(common.KindCatalog, "apply hash short circuit", err)
	}
	n, _ := res.RowsAffected()
	if err := commitOrWrap(tx, "commit hash short circuit"); err != nil {
		return 0, err
	}
	return n, nil
}

// MarkAspectShortCircuit marks, without dispatching, every unresolved
// pair whose aspect-ratio difference exceeds threshold: dif=+Inf,
// success=OK. Only valid in item mode.
func (s *Store) MarkAspectShortCircuit(threshold float64) (int64, error) {
	tx, err := s.beginTx()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`UPDATE pairs SET dif = ?, success = ?
		WHERE success = ? AND EXISTS (
			SELECT 1 FROM files fa, files fb
			WHERE fa.key = pairs.key_a AND fb.key = pairs.key_b
			AND fa.py != 0 AND fb.py != 0
			AND ABS((CAST(fa.px AS REAL) / fa.py) - (CAST(fb.px AS REAL) / fb.py)) > ?
		)`, math.Inf(1), OK, Unprocessed, threshold)
	if err != nil {
		_ = tx.Rollback()
		return 0, common.NewError(common.KindCatalog, "apply aspect short circuit", err)
	}
	n, _ := res.RowsAffected()
	if err := commitOrWrap(tx, "commit aspect short circuit"); err != nil {
		return 0, err
	}
	return n, nil
}
