package catalog

import (
	"database/sql"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// Progress is the process-wide persisted state machine of spec.md §3.
// Transitions are monotone and only the driver mutates this value.
type Progress int

const (
	Init Progress = iota
	IndexedDirs
	FirstLoopInProgress
	FirstLoopDone
	SecondLoopPopulating
	SecondLoopInProgress
	SecondLoopDone
)

func (p Progress) String() string {
	switch p {
	case Init:
		return "INIT"
	case IndexedDirs:
		return "INDEXED_DIRS"
	case FirstLoopInProgress:
		return "FIRST_LOOP_IN_PROGRESS"
	case FirstLoopDone:
		return "FIRST_LOOP_DONE"
	case SecondLoopPopulating:
		return "SECOND_LOOP_POPULATING"
	case SecondLoopInProgress:
		return "SECOND_LOOP_IN_PROGRESS"
	case SecondLoopDone:
		return "SECOND_LOOP_DONE"
	default:
		return "UNKNOWN"
	}
}

// progressTableDDL is appended to schemaStatements' effect lazily via
// ensureProgressTable, kept separate from schema.go because it stores a
// single mutable row rather than the append-only entities there.
const progressTableDDL = `
CREATE TABLE IF NOT EXISTS progress (
	id    INTEGER PRIMARY KEY CHECK (id = 0),
	state INTEGER NOT NULL,
	cache_index INTEGER NOT NULL DEFAULT 0
);
`

func (s *Store) ensureProgressTable() error {
	_, err := s.db.Exec(progressTableDDL)
	if err != nil {
		return common.NewError(common.KindCatalog, "create progress table", err)
	}
	return nil
}

// GetProgress returns the persisted progress state and cache_index
// resume cursor, defaulting to (Init, 0) if no row has been written yet.
func (s *Store) GetProgress() (Progress, int64, error) {
	if err := s.ensureProgressTable(); err != nil {
		return Init, 0, err
	}
	var state, cacheIndex int64
	err := s.db.QueryRow(`SELECT state, cache_index FROM progress WHERE id = 0`).Scan(&state, &cacheIndex)
	if err == sql.ErrNoRows {
		return Init, 0, nil
	}
	if err != nil {
		return Init, 0, common.NewError(common.KindCatalog, "read progress", err)
	}
	return Progress(state), cacheIndex, nil
}

// SetProgress persists the progress state and cache_index cursor,
// committed immediately since this is a checkpoint the driver relies on
// for crash recovery.
func (s *Store) SetProgress(p Progress, cacheIndex int64) error {
	if err := s.ensureProgressTable(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO progress(id, state, cache_index) VALUES (0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, cache_index = excluded.cache_index`,
		int64(p), cacheIndex)
	if err != nil {
		return common.NewError(common.KindCatalog, "write progress", err)
	}
	return nil
}
