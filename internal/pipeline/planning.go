package pipeline

import (
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/planner"
)

// runPlanning implements spec.md §4.4: materialize the pair space and
// apply the configured short circuits, then advance to
// SecondLoopInProgress. A crash between a successful Prepopulate and the
// progress commit that follows it resumes in SecondLoopPopulating;
// GetStats guards the re-entrant case, since PrepopulatePairs' INSERT has
// no ON CONFLICT clause and would violate the pairs table's
// UNIQUE(key_a, key_b) constraint on a second call.
func (d *Driver) runPlanning() error {
	stats, err := d.store.GetStats()
	if err != nil {
		return err
	}

	if stats.TotalPairs == 0 {
		if err := d.checkpoint(catalog.SecondLoopPopulating, 0); err != nil {
			return err
		}
		opts := planner.Options{
			BlockSize:        d.blockSize(),
			HasB:             d.cfg.RootB != "",
			BatchArgs:        d.cfg.SecondLoop.BatchArgs,
			SkipMatchingHash: d.cfg.SecondLoop.SkipMatchingHash,
			MatchAspectBy:    d.cfg.SecondLoop.MatchAspectBy,
		}
		result, err := planner.Prepopulate(d.store, opts)
		if err != nil {
			return err
		}
		d.logger.Infof("planning: %d pairs short-circuited by hash, %d by aspect ratio",
			result.HashShortCircuited, result.AspectShortCircuited)
	}

	return d.checkpoint(catalog.SecondLoopInProgress, 0)
}

// blockSize derives the square block edge length from the configured
// second-loop batch size, per spec.md §4.4's block-assignment scheme.
func (d *Driver) blockSize() int64 {
	size := d.cfg.SecondLoop.BatchSize
	if size < 1 {
		size = 1
	}
	return size
}
