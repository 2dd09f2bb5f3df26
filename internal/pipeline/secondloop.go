package pipeline

import (
	"context"
	"runtime"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/cache"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/comparer"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// loaderKind is a 3-bit tag over the eight (batch_args, use_ram_cache,
// compress) combinations the second loop can run under, matched once per
// block rather than re-branched at every call site — spec.md §9's
// redesign note for this dispatch.
type loaderKind uint8

const (
	flagBatchArgs loaderKind = 1 << iota
	flagUseRAMCache
	flagCompress
)

func resolveLoaderKind(opts catalog.SecondLoopOptions) loaderKind {
	var k loaderKind
	if opts.BatchArgs {
		k |= flagBatchArgs
	}
	if opts.UseRAMCache {
		k |= flagUseRAMCache
	}
	if opts.Compress {
		k |= flagCompress
	}
	return k
}

func (k loaderKind) batchMode() bool  { return k&flagBatchArgs != 0 }
func (k loaderKind) useCache() bool   { return k&flagUseRAMCache != 0 }
func (k loaderKind) compressed() bool { return k&flagCompress != 0 }

// newCacheLoader builds the block-cache loader for one second-loop run,
// mirroring the preprocessor's own thumbnail-vs-original fill choice.
func (d *Driver) newCacheLoader(kind loaderKind) *cache.Loader {
	return &cache.Loader{
		FS:       d.fs,
		ThumbDir: d.thumbDir,
		TargetW:  d.cfg.TargetWidth,
		TargetH:  d.cfg.TargetHeight,
		Compress: kind.compressed(),
	}
}

// runSecondLoop implements spec.md §4.6/§4.7: dispatch one block at a
// time, starting at the persisted cache_index so a resumed run skips
// blocks already fully recorded, until HasBlock reports the pair space is
// exhausted.
func (d *Driver) runSecondLoop(ctx context.Context, cacheIndex int64) error {
	kind := resolveLoaderKind(d.cfg.SecondLoop)
	opts := comparer.Options{Rotate: d.cfg.SecondLoop.Rotate}

	numWorkers := d.cfg.SecondLoop.CPUProc
	if numWorkers < 1 {
		numWorkers = runtime.NumCPU()
	}

	loader := d.newCacheLoader(kind)

	blockKey := cacheIndex
	for {
		if err := ctx.Err(); err != nil {
			return common.NewError(common.KindCancelled, "second loop cancelled", err)
		}

		exists, err := d.store.HasBlock(blockKey)
		if err != nil {
			return err
		}
		if !exists {
			break
		}

		if err := d.processBlock(ctx, blockKey, kind, opts, numWorkers, loader); err != nil {
			return err
		}

		blockKey++
		if err := d.checkpoint(catalog.SecondLoopInProgress, blockKey); err != nil {
			return err
		}
	}

	return d.checkpoint(catalog.SecondLoopDone, blockKey)
}

// processBlock dispatches and persists the results for one block,
// branching on loaderKind's two control-flow-relevant bits (compress only
// changes how the loader fills a cache row, not which path below runs).
func (d *Driver) processBlock(ctx context.Context, blockKey int64, kind loaderKind, opts comparer.Options,
	numWorkers int, loader *cache.Loader) error {
	switch {
	case kind.batchMode() && kind.useCache():
		return d.processBatchCached(ctx, blockKey, opts, numWorkers, loader)
	case kind.batchMode():
		return d.processBatchUncached(ctx, blockKey, opts, numWorkers)
	case kind.useCache():
		return d.processItemCached(ctx, blockKey, opts, numWorkers, loader)
	default:
		return d.processItemUncached(ctx, blockKey, opts, numWorkers)
	}
}

func (d *Driver) buildBlockCache(blockKey int64, loader *cache.Loader) (*cache.BlockCache, catalog.BlockExtent, error) {
	extent, err := d.store.GetBlockExtent(blockKey)
	if err != nil {
		return nil, extent, err
	}
	entriesX, err := d.store.GetFilesByKeyRange(extent.LowerX, extent.SizeX)
	if err != nil {
		return nil, extent, err
	}
	entriesY, err := d.store.GetFilesByKeyRange(extent.LowerY, extent.SizeY)
	if err != nil {
		return nil, extent, err
	}
	x, _ := loader.Build(extent.LowerX, extent.SizeX, entriesX)
	y, _ := loader.Build(extent.LowerY, extent.SizeY, entriesY)
	return &cache.BlockCache{X: x, Y: y}, extent, nil
}

// dequeueBufferSize bounds a feeder channel's capacity so a task list
// larger than the configured multiplier never has to be materialized as
// one giant buffered channel, while still never blocking the feeder on a
// buffer smaller than what workers can drain per round.
func dequeueBufferSize(numTasks, numWorkers, multiplier int) int {
	if multiplier < 1 {
		multiplier = 1
	}
	size := numWorkers * multiplier
	if size < 1 {
		size = 1
	}
	if size > numTasks {
		size = numTasks
	}
	if size < 1 {
		size = 1
	}
	return size
}

func (d *Driver) processItemCached(ctx context.Context, blockKey int64, opts comparer.Options, numWorkers int,
	loader *cache.Loader) error {
	block, _, err := d.buildBlockCache(blockKey, loader)
	if err != nil {
		return err
	}
	cacheKey := blockKey
	d.cache.PublishItem(cacheKey, block, blockKey)

	tasks, err := d.store.GetItemBlock(blockKey, false)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return d.pruneItemCache()
	}

	buf := dequeueBufferSize(len(tasks), numWorkers, d.cfg.SecondLoop.ItemDequeueMultiplier)
	argsCh := make(chan comparer.ItemCompareArgs, buf)
	go func() {
		defer close(argsCh)
		for _, t := range tasks {
			args := comparer.ItemCompareArgs{Key: t.PairKey, KeyA: t.KeyA, KeyB: t.KeyB, CacheKey: &cacheKey}
			select {
			case argsCh <- args:
			case <-ctx.Done():
				return
			}
		}
	}()

	resolveCache := func(k int64) (*cache.BlockCache, bool) { return d.cache.Get(k) }
	results := comparer.RunItemPool(ctx, numWorkers, d.fs, opts, resolveCache, argsCh)

	var keys []int64
	var difs []float32
	errs := make(map[int64]string)
	for r := range results {
		if r.Err != nil {
			errs[r.Key] = r.Err.Error()
			continue
		}
		keys = append(keys, r.Key)
		difs = append(difs, r.Diff)
	}

	if err := d.store.RecordItemResult(keys, difs); err != nil {
		return err
	}
	if err := d.store.RecordErrors(errs); err != nil {
		return err
	}
	return d.pruneItemCache()
}

func (d *Driver) pruneItemCache() error {
	_, err := d.cache.Prune(d.store.VerifyItemBlock)
	return err
}

func (d *Driver) processItemUncached(ctx context.Context, blockKey int64, opts comparer.Options, numWorkers int) error {
	tasks, err := d.store.GetItemBlock(blockKey, false)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	buf := dequeueBufferSize(len(tasks), numWorkers, d.cfg.SecondLoop.ItemDequeueMultiplier)
	argsCh := make(chan comparer.ItemCompareArgs, buf)
	go func() {
		defer close(argsCh)
		for _, t := range tasks {
			args := comparer.ItemCompareArgs{Key: t.PairKey, KeyA: t.KeyA, KeyB: t.KeyB, PathA: t.PathA, PathB: t.PathB}
			select {
			case argsCh <- args:
			case <-ctx.Done():
				return
			}
		}
	}()

	noCache := func(int64) (*cache.BlockCache, bool) { return nil, false }
	results := comparer.RunItemPool(ctx, numWorkers, d.fs, opts, noCache, argsCh)

	var keys []int64
	var difs []float32
	errs := make(map[int64]string)
	for r := range results {
		if r.Err != nil {
			errs[r.Key] = r.Err.Error()
			continue
		}
		keys = append(keys, r.Key)
		difs = append(difs, r.Diff)
	}

	if err := d.store.RecordItemResult(keys, difs); err != nil {
		return err
	}
	return d.store.RecordErrors(errs)
}

func (d *Driver) processBatchCached(ctx context.Context, blockKey int64, opts comparer.Options, numWorkers int,
	loader *cache.Loader) error {
	block, extent, err := d.buildBlockCache(blockKey, loader)
	if err != nil {
		return err
	}
	cacheKey := blockKey

	tasks, err := d.store.GetBlockTasks(blockKey)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	keysA := make([]int64, len(tasks))
	for i, t := range tasks {
		keysA[i] = t.KeyA
	}
	d.cache.PublishBatch(cacheKey, block, keysA)

	buf := dequeueBufferSize(len(tasks), numWorkers, d.cfg.SecondLoop.BatchDequeueMultiplier)
	argsCh := make(chan comparer.BatchCompareArgs, buf)
	go func() {
		defer close(argsCh)
		for _, t := range tasks {
			size := t.MaxKeyB - extent.LowerY + 1
			if size < 1 {
				size = 1
			}
			args := comparer.BatchCompareArgs{PairKey: t.PairKey, KeyA: t.KeyA, KeyB: t.MaxKeyB, MaxSizeB: size, CacheKey: &cacheKey}
			select {
			case argsCh <- args:
			case <-ctx.Done():
				return
			}
		}
	}()

	resolveCache := func(k int64) (*cache.BlockCache, bool) { return d.cache.Get(k) }
	results := comparer.RunBatchPool(ctx, numWorkers, d.fs, opts, resolveCache, argsCh)

	for r := range results {
		// RecordBlockResult must run before RecordBatchErrors: it writes
		// success=OK for every index in the descending run including the
		// -1 placeholders CompareBatch leaves at error offsets, so the
		// error write has to come second to be the final, authoritative
		// state for those coordinates.
		if err := d.store.RecordBlockResult(r.KeyA, r.KeyB, r.Diff); err != nil {
			return err
		}
		if len(r.Errors) > 0 {
			if err := d.store.RecordBatchErrors(r.KeyA, r.Errors); err != nil {
				return err
			}
		}
		d.cache.MarkKeyADone(cacheKey, r.KeyA)
	}

	return d.pruneItemCache()
}

// processBatchUncached handles batch_args=true with use_ram_cache=false:
// GetBlockTasks carries no per-entry paths, and the batch comparer has no
// native multi-entry path fallback beyond its documented degenerate
// single-entry span, so each pair in the block is dispatched individually
// through the batch comparer with MaxSizeB=1 using GetItemBlock's
// per-pair paths, and persisted through the item-mode write path since
// there is no contiguous descending run to address by coordinate.
func (d *Driver) processBatchUncached(ctx context.Context, blockKey int64, opts comparer.Options, numWorkers int) error {
	tasks, err := d.store.GetItemBlock(blockKey, false)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}

	buf := dequeueBufferSize(len(tasks), numWorkers, d.cfg.SecondLoop.BatchDequeueMultiplier)
	argsCh := make(chan comparer.BatchCompareArgs, buf)
	go func() {
		defer close(argsCh)
		for _, t := range tasks {
			pathA, pathB := t.PathA, t.PathB
			args := comparer.BatchCompareArgs{PairKey: t.PairKey, KeyA: t.KeyA, KeyB: t.KeyB, MaxSizeB: 1, PathA: &pathA, PathB: &pathB}
			select {
			case argsCh <- args:
			case <-ctx.Done():
				return
			}
		}
	}()

	noCache := func(int64) (*cache.BlockCache, bool) { return nil, false }
	results := comparer.RunBatchPool(ctx, numWorkers, d.fs, opts, noCache, argsCh)

	var keys []int64
	var difs []float32
	errs := make(map[int64]string)
	for r := range results {
		if msg, bad := r.Errors[r.KeyB]; bad {
			errs[r.PairKey] = msg
			continue
		}
		keys = append(keys, r.PairKey)
		if len(r.Diff) > 0 {
			difs = append(difs, r.Diff[0])
		} else {
			difs = append(difs, -1)
		}
	}

	if err := d.store.RecordItemResult(keys, difs); err != nil {
		return err
	}
	return d.store.RecordErrors(errs)
}
