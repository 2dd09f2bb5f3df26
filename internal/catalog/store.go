// Package catalog is the persistent relational store backing the
// pipeline: file entries, the hash-interning table, the pair (dif) table,
// and the progress/config documents that make every stage resumable. It
// is the single writer of all persisted state; every other package only
// receives data handed to it across a queue.
package catalog

import (
	"database/sql"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, registers "sqlite"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// Store wraps a *sql.DB opened against the on-disk catalog file and the
// in-memory hash-interning cache fronting it. The driver is the only
// caller; workers never see a Store directly, only the rows it hands
// them across a channel.
type Store struct {
	db        *sql.DB
	hashCache *hashCache
}

// Open opens (creating if absent) the sqlite catalog at path and ensures
// the schema exists. The DSN's _txlock=immediate makes every
// transaction opened with beginTx use BEGIN IMMEDIATE, satisfying the
// isolation requirement of spec.md §4.1 that two workers never observe
// the same claimed row.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_txlock=immediate")
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "open catalog", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid SQLITE_BUSY churn across connections

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, common.NewError(common.KindCatalog, "create schema", err)
		}
	}

	return &Store{db: db, hashCache: newHashCache(4096)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return common.NewError(common.KindCatalog, "close catalog", err)
	}
	return nil
}

// beginTx starts a transaction; the DSN's _txlock=immediate makes this a
// BEGIN IMMEDIATE under the hood, used for every mutation spec.md marks
// atomic.
func (s *Store) beginTx() (*sql.Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, common.NewError(common.KindCatalog, "begin transaction", err)
	}
	return tx, nil
}
