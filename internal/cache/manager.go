package cache

import "sync"

// entry tracks one published BlockCache plus whatever this run needs to
// decide when it is safe to prune: a per-key_a completion dictionary in
// batched mode, or a reference to the owning block_key so the caller can
// delegate completeness to catalog.Store.VerifyItemBlock in item mode.
type entry struct {
	block     *BlockCache
	itemMode  bool
	blockKey  int64
	progress  map[int64]bool
	doneCount int
}

func (e *entry) complete() bool {
	return !e.itemMode && e.doneCount == len(e.progress)
}

// Manager owns the process-wide cache_key -> BlockCache mapping described
// in spec.md §4.5/§5: the driver is the only writer, workers read through
// Get. Manager also holds the per-block progress bookkeeping that drives
// pruning.
type Manager struct {
	mu      sync.RWMutex
	entries map[int64]*entry
	order   []int64
}

// NewManager returns an empty cache manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[int64]*entry)}
}

// PublishBatch makes block available under cacheKey for batch-mode
// comparison, tracked for pruning by the set of key_a values the driver
// expects a record_block_result for.
func (m *Manager) PublishBatch(cacheKey int64, block *BlockCache, keysA []int64) {
	progress := make(map[int64]bool, len(keysA))
	for _, k := range keysA {
		progress[k] = false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey] = &entry{block: block, progress: progress}
	m.order = append(m.order, cacheKey)
}

// PublishItem makes block available under cacheKey for item-mode
// comparison, whose completeness is delegated to blockKey's catalog state
// rather than an in-memory progress dictionary.
func (m *Manager) PublishItem(cacheKey int64, block *BlockCache, blockKey int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey] = &entry{block: block, itemMode: true, blockKey: blockKey}
	m.order = append(m.order, cacheKey)
}

// Get returns the BlockCache published under cacheKey, read-only from a
// worker's point of view.
func (m *Manager) Get(cacheKey int64) (*BlockCache, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[cacheKey]
	if !ok {
		return nil, false
	}
	return e.block, true
}

// MarkKeyADone records that key_a's row has been fully scored within
// cacheKey's block, for batch-mode pruning.
func (m *Manager) MarkKeyADone(cacheKey, keyA int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[cacheKey]
	if !ok || e.itemMode {
		return
	}
	if done, tracked := e.progress[keyA]; tracked && !done {
		e.progress[keyA] = true
		e.doneCount++
	}
}

// Prune removes every completed entry starting from the lowest live
// cache_key, stopping at the first still-incomplete one, and returns the
// cache keys it removed. verifyItem is called only for item-mode entries
// (catalog.Store.VerifyItemBlock). This bounds live entries to roughly
// in_flight_blocks+1, matching spec.md §8's cache pruning bound.
func (m *Manager) Prune(verifyItem func(blockKey int64) (bool, error)) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pruned []int64
	for len(m.order) > 0 {
		cacheKey := m.order[0]
		e := m.entries[cacheKey]

		complete := e.complete()
		if e.itemMode {
			ok, err := verifyItem(e.blockKey)
			if err != nil {
				return pruned, err
			}
			complete = ok
		}
		if !complete {
			break
		}

		delete(m.entries, cacheKey)
		m.order = m.order[1:]
		pruned = append(pruned, cacheKey)
	}
	return pruned, nil
}

// Len reports the number of live cache entries.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
