// Package comparer implements the second-loop worker of spec.md §4.6: item
// mode (one score per candidate pair) and batch mode (a descending run of
// scores anchored at one key_a), both fed by the shared block cache and
// both converting per-entry failures into results rather than aborting.
package comparer

import (
	"context"
	"sync"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/cache"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/imaging"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
)

// Options configures one comparer run, mirroring the second-loop option
// block of spec.md §3.
type Options struct {
	Rotate bool // compare against all four rotations and take the minimum
}

// ItemCompareArgs is the unit of item-mode work, per spec.md §4.6.
type ItemCompareArgs struct {
	Key          int64
	KeyA, KeyB   int64
	PathA, PathB string
	CacheKey     *int64
}

// ItemCompareResult is an item-mode worker's output for one pair.
type ItemCompareResult struct {
	Key  int64
	Diff float32
	Err  error
}

// BatchCompareArgs is the unit of batch-mode work: compare image KeyA
// against images KeyB, KeyB-1, ... for up to MaxSizeB entries within one
// block, per spec.md §4.6.
type BatchCompareArgs struct {
	PairKey    int64
	KeyA, KeyB int64
	MaxSizeB   int64
	CacheKey   *int64
	PathA      *string
	PathB      *string
}

// BatchCompareResult is a batch-mode worker's output for one key_a span.
// Diff is indexed by descending key_b starting at KeyB, matching the
// persistence ordering spec.md §5 requires; Errors maps an absolute key_b
// to its failure message and leaves the matching Diff slot at -1.
type BatchCompareResult struct {
	PairKey    int64
	KeyA, KeyB int64
	Diff       []float32
	Errors     map[int64]string // key_b -> message
	CacheKey   *int64
}

func resolveMatrix(fs filesystem.FileSystem, block *cache.BlockCache, axis func(*cache.BlockCache) *cache.ImageCache,
	key int64, path string) (*imaging.Matrix, error) {
	if block != nil {
		if m, ok := axis(block).At(key); ok {
			return m, nil
		}
	}
	f, err := fs.Open(path)
	if err != nil {
		return nil, common.NewError(common.KindIO, "open "+path, err)
	}
	defer func() { _ = f.Close() }()
	img, _, _, err := imaging.Decode(f)
	if err != nil {
		return nil, err
	}
	return imaging.ToMatrix(img), nil
}

func xAxis(b *cache.BlockCache) *cache.ImageCache { return b.X }
func yAxis(b *cache.BlockCache) *cache.ImageCache { return b.Y }

// score returns mse(a, b), or the minimum mse(a, rotation(b)) over the
// four rotations when rotate is set, per spec.md §4.6.
func score(a, b *imaging.Matrix, rotate bool) (float32, error) {
	if !rotate {
		return imaging.MSE(a, b)
	}
	best, err := imaging.MSE(a, b)
	if err != nil {
		return 0, err
	}
	r := b
	for i := 0; i < 3; i++ {
		r = imaging.Rotate90(r)
		d, err := imaging.MSE(a, r)
		if err != nil {
			return 0, err
		}
		if d < best {
			best = d
		}
	}
	return best, nil
}

// CompareItem resolves both matrices (from the block cache when CacheKey
// is set, else by decoding from disk) and scores the pair.
func CompareItem(fs filesystem.FileSystem, block *cache.BlockCache, opts Options, args ItemCompareArgs) ItemCompareResult {
	a, err := resolveMatrix(fs, block, xAxis, args.KeyA, args.PathA)
	if err != nil {
		return ItemCompareResult{Key: args.Key, Diff: -1, Err: err}
	}
	b, err := resolveMatrix(fs, block, yAxis, args.KeyB, args.PathB)
	if err != nil {
		return ItemCompareResult{Key: args.Key, Diff: -1, Err: err}
	}
	d, err := score(a, b, opts.Rotate)
	if err != nil {
		return ItemCompareResult{Key: args.Key, Diff: -1, Err: err}
	}
	return ItemCompareResult{Key: args.Key, Diff: d}
}

// CompareBatch walks args.KeyB, args.KeyB-1, ... for up to args.MaxSizeB
// entries, scoring each against args.KeyA. PathA/PathB, when set, back a
// degenerate single-entry span with no cache; otherwise every entry is
// resolved from block.
func CompareBatch(fs filesystem.FileSystem, block *cache.BlockCache, opts Options, args BatchCompareArgs) BatchCompareResult {
	result := BatchCompareResult{PairKey: args.PairKey, KeyA: args.KeyA, KeyB: args.KeyB, CacheKey: args.CacheKey}

	var pathA string
	if args.PathA != nil {
		pathA = *args.PathA
	}
	a, err := resolveMatrix(fs, block, xAxis, args.KeyA, pathA)
	if err != nil {
		result.Diff = make([]float32, args.MaxSizeB)
		result.Errors = make(map[int64]string, args.MaxSizeB)
		for i := range result.Diff {
			result.Diff[i] = -1
			result.Errors[args.KeyB-int64(i)] = err.Error()
		}
		return result
	}

	result.Diff = make([]float32, args.MaxSizeB)
	for i := int64(0); i < args.MaxSizeB; i++ {
		keyB := args.KeyB - i
		var pathB string
		if args.PathB != nil && i == 0 {
			pathB = *args.PathB
		}
		b, err := resolveMatrix(fs, block, yAxis, keyB, pathB)
		if err != nil {
			result.Diff[i] = -1
			if result.Errors == nil {
				result.Errors = make(map[int64]string)
			}
			result.Errors[keyB] = err.Error()
			continue
		}
		d, err := score(a, b, opts.Rotate)
		if err != nil {
			result.Diff[i] = -1
			if result.Errors == nil {
				result.Errors = make(map[int64]string)
			}
			result.Errors[keyB] = err.Error()
			continue
		}
		result.Diff[i] = d
	}
	return result
}

// ItemWorker drains ItemCompareArgs from tasks, resolving the cache block
// for each task's CacheKey through resolveCache, until tasks closes or ctx
// is cancelled.
func ItemWorker(ctx context.Context, fs filesystem.FileSystem, opts Options, resolveCache func(int64) (*cache.BlockCache, bool),
	tasks <-chan ItemCompareArgs, results chan<- ItemCompareResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case args, ok := <-tasks:
			if !ok {
				return
			}
			var block *cache.BlockCache
			if args.CacheKey != nil {
				block, _ = resolveCache(*args.CacheKey)
			}
			result := CompareItem(fs, block, opts, args)
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// BatchWorker drains BatchCompareArgs from tasks analogously to ItemWorker.
func BatchWorker(ctx context.Context, fs filesystem.FileSystem, opts Options, resolveCache func(int64) (*cache.BlockCache, bool),
	tasks <-chan BatchCompareArgs, results chan<- BatchCompareResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case args, ok := <-tasks:
			if !ok {
				return
			}
			var block *cache.BlockCache
			if args.CacheKey != nil {
				block, _ = resolveCache(*args.CacheKey)
			}
			result := CompareBatch(fs, block, opts, args)
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// RunItemPool spawns numWorkers item-mode comparer workers.
func RunItemPool(ctx context.Context, numWorkers int, fs filesystem.FileSystem, opts Options,
	resolveCache func(int64) (*cache.BlockCache, bool), tasks <-chan ItemCompareArgs) <-chan ItemCompareResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	results := make(chan ItemCompareResult, numWorkers)
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go ItemWorker(ctx, fs, opts, resolveCache, tasks, results, &wg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// RunBatchPool spawns numWorkers batch-mode comparer workers.
func RunBatchPool(ctx context.Context, numWorkers int, fs filesystem.FileSystem, opts Options,
	resolveCache func(int64) (*cache.BlockCache, bool), tasks <-chan BatchCompareArgs) <-chan BatchCompareResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	results := make(chan BatchCompareResult, numWorkers)
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go BatchWorker(ctx, fs, opts, resolveCache, tasks, results, &wg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}
