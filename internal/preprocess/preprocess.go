// Package preprocess implements the first-loop worker: decode, resize,
// hash, and optionally persist a thumbnail for each catalog entry, run
// across a bounded pool of goroutines.
package preprocess

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/imaging"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/log"
)

// Options configures one first-loop run, mirroring the first-loop option
// block of spec.md §3.
type Options struct {
	TargetWidth, TargetHeight int
	Compress                  bool
	ComputeHash               bool
	ShiftAmount               int
	ThumbDir                  string
}

// ThumbnailPath returns the deterministic thumbnail file name derived
// from a catalog key, per spec.md §4.3 step 3.
func ThumbnailPath(thumbDir string, key int64) string {
	return filepath.Join(thumbDir, strconv.FormatInt(key, 10)+".png")
}

// process runs the five steps of spec.md §4.3 for one task, converting
// any failure into a PreprocessResult carrying the typed error rather
// than propagating it — the worker never terminates on a single bad
// image.
func process(fs filesystem.FileSystem, opts Options, task catalog.PreprocessTask) catalog.PreprocessResult {
	f, err := fs.Open(task.Path)
	if err != nil {
		return catalog.PreprocessResult{Key: task.Key, Err: common.NewError(common.KindIO, "open "+task.Path, err)}
	}
	defer func() { _ = f.Close() }()

	matrix, origW, origH, err := imaging.DecodeAndResize(f, opts.TargetWidth, opts.TargetHeight)
	if err != nil {
		return catalog.PreprocessResult{Key: task.Key, Err: err}
	}

	if opts.Compress {
		if err := writeThumbnail(fs, opts.ThumbDir, task.Key, matrix); err != nil {
			return catalog.PreprocessResult{Key: task.Key, Err: err}
		}
	}

	result := catalog.PreprocessResult{Key: task.Key, PX: origW, PY: origH}
	if opts.ComputeHash {
		rot, err := imaging.PHash(matrix, opts.ShiftAmount)
		if err != nil {
			return catalog.PreprocessResult{Key: task.Key, Err: err}
		}
		result.Hash0, result.Hash90, result.Hash180, result.Hash270 = rot.H0, rot.H90, rot.H180, rot.H270
	}
	return result
}

func writeThumbnail(fs filesystem.FileSystem, thumbDir string, key int64, m *imaging.Matrix) error {
	if err := fs.MkdirAll(thumbDir, 0o755); err != nil {
		return common.NewError(common.KindIO, "create thumbnail directory", err)
	}
	out, err := fs.Create(ThumbnailPath(thumbDir, key))
	if err != nil {
		return common.NewError(common.KindIO, "create thumbnail file", err)
	}
	defer func() { _ = out.Close() }()
	return imaging.SaveThumbnail(out, m)
}

// worker drains tasks until the channel closes or ctx is cancelled,
// sending one result per task through the full decode/resize/hash/
// thumbnail pipeline.
func worker(ctx context.Context, fs filesystem.FileSystem, opts Options, logger log.Logger,
	tasks <-chan catalog.PreprocessTask, results chan<- catalog.PreprocessResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-tasks:
			if !ok {
				return
			}
			result := process(fs, opts, task)
			if result.Err != nil {
				logger.Warnf("preprocess %s: %v", task.Path, result.Err)
			}
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// RunPool spawns numWorkers preprocess workers consuming tasks and
// producing results, closing results once every worker has exited
// (on tasks-channel closure or ctx cancellation). The driver is
// responsible for closing tasks once a batch has been fully enqueued.
func RunPool(ctx context.Context, numWorkers int, fs filesystem.FileSystem, opts Options, logger log.Logger,
	tasks <-chan catalog.PreprocessTask) <-chan catalog.PreprocessResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	results := make(chan catalog.PreprocessResult, numWorkers)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go worker(ctx, fs, opts, logger, tasks, results, &wg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// ValidateOptions reports a ConfigError for option combinations the
// driver must reject before starting a first-loop run.
func ValidateOptions(opts Options) error {
	if opts.TargetWidth <= 0 || opts.TargetHeight <= 0 {
		return common.NewError(common.KindConfig, fmt.Sprintf("invalid thumbnail target %dx%d", opts.TargetWidth, opts.TargetHeight), nil)
	}
	if opts.Compress && opts.ThumbDir == "" {
		return common.NewError(common.KindConfig, "compress requires a thumbnail directory", nil)
	}
	return nil
}
