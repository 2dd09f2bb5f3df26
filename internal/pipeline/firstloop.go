package pipeline

import (
	"context"
	"runtime"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/preprocess"
)

// runSizing implements spec.md §4.7's "Sizing" stage: swap partitions so
// the larger side is always A (B is the smaller side after a swap),
// dense-renumber keys so the first loop's batch arithmetic starts at
// zero, then compute and persist the first-loop runtime options before
// advancing to FirstLoopInProgress.
func (d *Driver) runSizing() error {
	hasB := d.cfg.RootB != ""
	if hasB {
		countA, err := d.store.CountPartition(catalog.PartitionA)
		if err != nil {
			return err
		}
		countB, err := d.store.CountPartition(catalog.PartitionB)
		if err != nil {
			return err
		}
		if countB > countA {
			if err := d.store.SwapPartitions(); err != nil {
				return err
			}
			d.cfg.RootA, d.cfg.RootB = d.cfg.RootB, d.cfg.RootA
		}
	}

	if err := d.store.DenseRenumberKeys(); err != nil {
		return err
	}

	stats, err := d.store.GetStats()
	if err != nil {
		return err
	}

	cpu := d.cfg.FirstLoop.CPUProc
	if cpu < 1 {
		cpu = runtime.NumCPU()
	}
	rt := computeFirstLoopRuntime(stats.TotalFiles, cpu, d.cfg.FirstLoop.BatchSize)
	d.cfg.FirstLoop.Parallel = rt.Parallel
	d.cfg.FirstLoop.BatchSize = rt.BatchSize

	return d.checkpoint(catalog.FirstLoopInProgress, 0)
}

// runFirstLoop implements spec.md §4.3: reset any rows stranded
// Processing by a prior crash, then repeatedly claim and drain batches
// through preprocess.RunPool until every file row is resolved.
func (d *Driver) runFirstLoop(ctx context.Context) error {
	if err := d.store.ResetInFlight(); err != nil {
		return err
	}

	numWorkers := 1
	if d.cfg.FirstLoop.Parallel {
		numWorkers = d.cfg.FirstLoop.CPUProc
		if numWorkers < 1 {
			numWorkers = runtime.NumCPU()
		}
	}
	batchSize := d.cfg.FirstLoop.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	opts := preprocess.Options{
		TargetWidth:  d.cfg.TargetWidth,
		TargetHeight: d.cfg.TargetHeight,
		Compress:     d.cfg.FirstLoop.Compress,
		ComputeHash:  d.cfg.FirstLoop.ComputeHash,
		ShiftAmount:  d.cfg.FirstLoop.ShiftAmount,
		ThumbDir:     d.thumbDir,
	}

	for {
		if err := ctx.Err(); err != nil {
			return common.NewError(common.KindCancelled, "first loop cancelled", err)
		}

		batch, err := d.store.TakePreprocessBatch(batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		tasks := make(chan catalog.PreprocessTask, len(batch))
		for _, t := range batch {
			tasks <- t
		}
		close(tasks)

		results := preprocess.RunPool(ctx, numWorkers, d.fs, opts, d.logger, tasks)
		applied := make([]catalog.PreprocessResult, 0, len(batch))
		for r := range results {
			applied = append(applied, r)
		}

		if err := d.store.ApplyPreprocessResults(applied, d.cfg.FirstLoop.ComputeHash); err != nil {
			return err
		}
		d.logger.Infof("first loop: processed %d files this batch", len(applied))

		if err := d.checkpoint(catalog.FirstLoopInProgress, 0); err != nil {
			return err
		}
	}

	return d.checkpoint(catalog.FirstLoopDone, 0)
}
