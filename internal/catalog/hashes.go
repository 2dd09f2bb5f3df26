package catalog

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// hashCache fronts the hashes table's "intern a string, get a key back"
// upsert with an in-process memo so repeated hash strings within a single
// run don't round-trip through SQL every time. It is never dereferenced
// during a run (lifecycle note in spec.md §3), so a plain map with a
// mutex is sufficient; no eviction is needed because hash strings are
// bounded by the number of distinct perceptual hashes observed, not by
// the (much larger) number of files referencing them.
type hashCache struct {
	mu   sync.Mutex
	byID map[string]int64
}

func newHashCache(sizeHint int) *hashCache {
	return &hashCache{byID: make(map[string]int64, sizeHint)}
}

// internHash returns the key of hash within tx, inserting a new row
// (count=0) if none exists yet, and bumping count by delta either way.
func (s *Store) internHash(tx *sql.Tx, hash string, delta int64) (int64, error) {
	s.hashCache.mu.Lock()
	defer s.hashCache.mu.Unlock()

	if key, ok := s.hashCache.byID[hash]; ok {
		if delta != 0 {
			if _, err := tx.Exec(`UPDATE hashes SET count = count + ? WHERE key = ?`, delta, key); err != nil {
				return 0, fmt.Errorf("bump hash count: %w", err)
			}
		}
		return key, nil
	}

	if _, err := tx.Exec(`INSERT INTO hashes(hash, count) VALUES (?, ?)
		ON CONFLICT(hash) DO UPDATE SET count = count + excluded.count`, hash, delta); err != nil {
		return 0, fmt.Errorf("intern hash: %w", err)
	}
	// LastInsertId is unreliable when the row already existed (conflict
	// path), so the key is always looked up directly.
	var key int64
	if err := tx.QueryRow(`SELECT key FROM hashes WHERE hash = ?`, hash).Scan(&key); err != nil {
		return 0, fmt.Errorf("lookup interned hash: %w", err)
	}
	s.hashCache.byID[hash] = key
	return key, nil
}

// HashReferenceIntegrity reports the total reference count summed across
// all hash rows, used by the testable-property check that
// sum(count) = 4*|files with success=1|.
func (s *Store) HashReferenceIntegrity() (totalCount int64, err error) {
	row := s.db.QueryRow(`SELECT COALESCE(SUM(count), 0) FROM hashes`)
	if err := row.Scan(&totalCount); err != nil {
		return 0, common.NewError(common.KindCatalog, "sum hash counts", err)
	}
	return totalCount, nil
}
