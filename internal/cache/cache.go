// Package cache implements the block-scoped shared image cache of
// spec.md §4.5: a dense array of decoded matrices per axis, owned by the
// driver and exposed read-only to comparator workers, plus ownership-based
// pruning so memory stays bounded to the in-flight block window.
package cache

import (
	"path/filepath"
	"strconv"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/imaging"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
)

// ImageCache is a dense array of decoded matrices for one axis of a block,
// indexed by catalog key minus Offset.
type ImageCache struct {
	Offset   int64
	Keys     []int64 // Keys[i] is the catalog key backing Matrices[i]; -1 marks a gap.
	Matrices []*imaging.Matrix
}

// NewImageCache allocates an empty ImageCache of the given size, rows
// initially unset.
func NewImageCache(offset int64, size int64) *ImageCache {
	keys := make([]int64, size)
	for i := range keys {
		keys[i] = -1
	}
	return &ImageCache{Offset: offset, Keys: keys, Matrices: make([]*imaging.Matrix, size)}
}

// At returns the matrix for key, and whether it was present.
func (c *ImageCache) At(key int64) (*imaging.Matrix, bool) {
	i := key - c.Offset
	if i < 0 || int(i) >= len(c.Matrices) {
		return nil, false
	}
	return c.Matrices[i], c.Matrices[i] != nil
}

// set stores m for key; a key outside the cache's range is ignored.
func (c *ImageCache) set(key int64, m *imaging.Matrix) {
	i := key - c.Offset
	if i < 0 || int(i) >= len(c.Matrices) {
		return
	}
	c.Keys[i] = key
	c.Matrices[i] = m
}

// Size reports how many slots this axis holds.
func (c *ImageCache) Size() int64 { return int64(len(c.Matrices)) }

// BlockCache is the x/y pair of ImageCache that backs one comparison block.
// Diagonal-block aliasing (x and y sharing storage when x.Offset+1 ==
// y.Offset on a square block) is intentionally not implemented: spec.md §9
// notes the original disables it because it breaks the pruning invariant
// that a cache entry drops exactly when its progress dictionary completes,
// and no pruning scheme that tolerates aliasing has been designed.
type BlockCache struct {
	X, Y *ImageCache
}

// Loader fills ImageCache rows from either thumbnails (when Compress is
// set) or from decoding and resizing originals, mirroring the preprocessor's
// own fill choice (spec.md §4.3/§4.5).
type Loader struct {
	FS       filesystem.FileSystem
	ThumbDir string
	TargetW  int
	TargetH  int
	Compress bool
}

func (l *Loader) load(key int64, path string) (*imaging.Matrix, error) {
	if l.Compress {
		return l.loadThumbnail(key)
	}
	return l.loadOriginal(path)
}

func (l *Loader) loadThumbnail(key int64) (*imaging.Matrix, error) {
	name := filepath.Join(l.ThumbDir, strconv.FormatInt(key, 10)+".png")
	f, err := l.FS.Open(name)
	if err != nil {
		return nil, common.NewError(common.KindIO, "open thumbnail "+name, err)
	}
	defer func() { _ = f.Close() }()
	return imaging.LoadThumbnail(f)
}

func (l *Loader) loadOriginal(path string) (*imaging.Matrix, error) {
	f, err := l.FS.Open(path)
	if err != nil {
		return nil, common.NewError(common.KindIO, "open "+path, err)
	}
	defer func() { _ = f.Close() }()
	matrix, _, _, err := imaging.DecodeAndResize(f, l.TargetW, l.TargetH)
	if err != nil {
		return nil, err
	}
	return matrix, nil
}

// Build fills an ImageCache covering [lower, lower+size) from entries,
// skipping keys entries doesn't cover (a gap the caller's catalog query
// already omitted) and recording a per-key error for any file that fails
// to load rather than aborting the whole fill.
func (l *Loader) Build(lower, size int64, entries []catalog.FileEntry) (*ImageCache, map[int64]error) {
	ic := NewImageCache(lower, size)
	errs := make(map[int64]error)
	for _, e := range entries {
		m, err := l.load(e.Key, e.Path)
		if err != nil {
			errs[e.Key] = err
			continue
		}
		ic.set(e.Key, m)
	}
	return ic, errs
}
