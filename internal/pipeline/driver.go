// Package pipeline implements the driver of spec.md §4.7: the progress
// state machine, the indexer, the first- and second-loop worker-pool
// lifecycles, the shared image cache's pruning, and cooperative
// cancellation. It is the only package that wires catalog, imaging,
// preprocess, cache, comparer, and planner together.
package pipeline

import (
	"context"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/cache"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/clock"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/log"
)

// Driver owns the catalog handle, the filesystem/clock/logger
// collaborators, and the process-wide image cache manager. It is the
// single writer of catalog state; every worker pool it spawns receives
// only the narrow task/result channels and a read-only cache handle, per
// spec.md §9's "reimplement as explicit dependency-injected
// collaborators" note.
type Driver struct {
	store  *catalog.Store
	fs     filesystem.FileSystem
	logger log.Logger
	clock  clock.Clock
	cache  *cache.Manager

	taskPath string
	thumbDir string
	cfg      catalog.Config
}

// New builds a Driver around an already-open catalog store. cfg is the
// configuration to run with if no task file has been persisted yet;
// Resume overrides it with whatever was last checkpointed.
func New(store *catalog.Store, fs filesystem.FileSystem, logger log.Logger, clk clock.Clock,
	taskPath, thumbDir string, cfg catalog.Config) *Driver {
	return &Driver{
		store:    store,
		fs:       fs,
		logger:   logger,
		clock:    clk,
		cache:    cache.NewManager(),
		taskPath: taskPath,
		thumbDir: thumbDir,
		cfg:      cfg,
	}
}

// Resume loads a previously persisted task file, if any, replacing the
// Driver's configuration with the checkpointed one so a restarted run
// observes the same options it started with (spec.md §8's resume-safety
// property requires the same final catalog as an uninterrupted run,
// which presumes the same configuration).
func (d *Driver) Resume() error {
	tf, ok, err := catalog.LoadTaskFile(d.taskPath)
	if err != nil {
		return err
	}
	if ok {
		d.cfg = tf.Config
	}
	return nil
}

// checkpoint persists progress to the catalog and, when the configured
// retain-progress option is set, rewrites the task file alongside it —
// the "commit checkpoint" spec.md §4.7 requires after every submitted or
// drained batch.
func (d *Driver) checkpoint(p catalog.Progress, cacheIndex int64) error {
	if err := d.store.SetProgress(p, cacheIndex); err != nil {
		return err
	}
	if !d.cfg.RetainProgress {
		return nil
	}
	return catalog.SaveTaskFile(d.taskPath, catalog.TaskFile{Config: d.cfg, Progress: p, CacheIndex: cacheIndex})
}

// Run drives the progress state machine from wherever it currently sits
// through to SecondLoopDone, or until ctx is cancelled. ctx.Done() is the
// idiomatic Go substitute for spec.md §5's process-wide run=false flag:
// every stage observes it at its own suspension points and returns a
// KindCancelled error, leaving progress at the last successfully
// committed checkpoint so a later call to Run resumes cleanly.
func (d *Driver) Run(ctx context.Context) error {
	for {
		progress, cacheIndex, err := d.store.GetProgress()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return common.NewError(common.KindCancelled, "pipeline run cancelled", ctx.Err())
		}

		switch progress {
		case catalog.Init:
			d.logger.Info("indexing directory trees")
			if err := d.runIndex(ctx); err != nil {
				return err
			}
		case catalog.IndexedDirs:
			d.logger.Info("sizing run and computing first-loop runtime options")
			if err := d.runSizing(); err != nil {
				return err
			}
		case catalog.FirstLoopInProgress:
			d.logger.Info("running first loop (preprocess)")
			if err := d.runFirstLoop(ctx); err != nil {
				return err
			}
		case catalog.FirstLoopDone:
			d.logger.Info("planning pair space")
			if err := d.runPlanning(); err != nil {
				return err
			}
		case catalog.SecondLoopPopulating:
			// A crash between FirstLoopDone and SecondLoopInProgress
			// resumes here; runPlanning is safe to call again because
			// PrepopulatePairs commits atomically in one transaction
			// and GetStats is used to detect whether it already ran.
			d.logger.Info("resuming pair-space planning")
			if err := d.runPlanning(); err != nil {
				return err
			}
		case catalog.SecondLoopInProgress:
			d.logger.Info("running second loop (compare)")
			if err := d.runSecondLoop(ctx, cacheIndex); err != nil {
				return err
			}
		case catalog.SecondLoopDone:
			d.logger.Info("pipeline run complete")
			return nil
		}
	}
}

// Close releases the catalog handle.
func (d *Driver) Close() error {
	return d.store.Close()
}
