// Package planner implements the pair-space planner of spec.md §4.4: a
// thin policy layer over the catalog's block-assignment and short-circuit
// primitives, plus the pure block-coordinate arithmetic those primitives
// implement in SQL for atomicity (kept here too, as a documented and
// independently testable pure function).
package planner

// BlockIndex computes the (block_a, block_b) coordinate for a candidate
// pair, matching catalog.Store.PrepopulatePairs's own SQL arithmetic
// exactly: block_a = key_a / blockSize always; block_b = key_b / blockSize
// in single-partition mode, or (key_b - minKeyB) / blockSize in
// two-partition mode. Kept as a standalone pure function so the block
// assignment rule has one documented, unit-tested definition even though
// the catalog computes it directly in SQL for transactional atomicity.
func BlockIndex(keyA, keyB, blockSize, minKeyB int64, hasB bool) (blockA, blockB int64) {
	blockA = keyA / blockSize
	if hasB {
		return blockA, (keyB - minKeyB) / blockSize
	}
	return blockA, keyB / blockSize
}

// Store is the narrow slice of catalog.Store the planner depends on,
// kept interface-segregated so tests can supply a fake without pulling
// in the whole catalog package.
type Store interface {
	PrepopulatePairs(blockSize int64, hasB bool, startBlockKey int64) error
	MarkHashShortCircuit() (int64, error)
	MarkAspectShortCircuit(threshold float64) (int64, error)
}

// Options configures one planning pass, mirroring the second-loop option
// block of spec.md §3 that governs planning.
type Options struct {
	BlockSize        int64
	HasB             bool
	StartBlockKey    int64
	BatchArgs        bool // batched dispatch: short-circuits never apply
	SkipMatchingHash bool
	MatchAspectBy    float64 // negative disables the aspect-ratio short circuit
}

// Result reports how many pairs each short circuit resolved without
// dispatching to the comparator.
type Result struct {
	HashShortCircuited   int64
	AspectShortCircuited int64
}

// Prepopulate materializes the pair space and, in item mode only, applies
// the configured short circuits, per spec.md §4.4: "Batched mode cannot
// apply these because a block is dispatched atomically."
func Prepopulate(store Store, opts Options) (Result, error) {
	if err := store.PrepopulatePairs(opts.BlockSize, opts.HasB, opts.StartBlockKey); err != nil {
		return Result{}, err
	}
	if opts.BatchArgs {
		return Result{}, nil
	}

	var result Result
	if opts.SkipMatchingHash {
		n, err := store.MarkHashShortCircuit()
		if err != nil {
			return result, err
		}
		result.HashShortCircuited = n
	}
	if opts.MatchAspectBy >= 0 {
		n, err := store.MarkAspectShortCircuit(opts.MatchAspectBy)
		if err != nil {
			return result, err
		}
		result.AspectShortCircuited = n
	}
	return result, nil
}
