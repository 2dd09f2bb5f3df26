package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/common"
)

// FirstLoopOptions configures the preprocess stage, per spec.md §3.
type FirstLoopOptions struct {
	Compress     bool `json:"compress"`
	ComputeHash  bool `json:"compute_hash"`
	ShiftAmount  int  `json:"shift_amount"`
	BatchSize    int  `json:"batch_size"`
	Parallel     bool `json:"parallel"`
	CPUProc      int  `json:"cpu_proc"`
}

// SecondLoopOptions configures the comparison stage, per spec.md §3.
type SecondLoopOptions struct {
	CPUProc          int     `json:"cpu_proc"`
	GPUProc          int     `json:"gpu_proc"`
	BatchSize        int64   `json:"batch_size"`
	SkipMatchingHash bool    `json:"skip_matching_hash"`
	MatchAspectBy    float64 `json:"match_aspect_by"` // negative disables the check
	BatchArgs        bool    `json:"batch_args"`
	UseRAMCache      bool    `json:"use_ram_cache"`
	DiffThreshold    float64 `json:"diff_threshold"`
	PlotThreshold    float64 `json:"plot_threshold"`
	Parallel         bool    `json:"parallel"`

	// BatchDequeueMultiplier and ItemDequeueMultiplier resolve Open
	// Question (b) of spec.md §9 as tunables: each second-loop feeder
	// channel is buffered to min(tasks, workers*multiplier) for batch and
	// item mode respectively. The original's dequeue thresholds
	// ((block_size**2)*2 for batch mode, batch_size*len(handles) for item
	// mode) are not reproduced.
	BatchDequeueMultiplier int `json:"batch_dequeue_multiplier"`
	ItemDequeueMultiplier  int `json:"item_dequeue_multiplier"`

	// Rotate gates the four-rotation MSE minimum of spec.md §4.6. Not
	// among the named fields of the second-loop option block in spec.md
	// §3, but required by the operation that block configures, so it
	// lives alongside the other second-loop knobs.
	Rotate bool `json:"rotate"`

	// Compress selects thumbnail loading over decode-and-resize-from-
	// original when the second loop fills its shared image cache, one of
	// the three axes of spec.md §9's loader-kind dispatch alongside
	// BatchArgs and UseRAMCache.
	Compress bool `json:"compress"`
}

// Config is the full persisted configuration document, rewritten
// alongside progress on every commit when RetainProgress is true.
type Config struct {
	RootA string `json:"root_a"`
	RootB string `json:"root_b,omitempty"` // empty selects single-partition mode

	TargetWidth  int `json:"target_width"`
	TargetHeight int `json:"target_height"`

	AllowedExtensions []string `json:"allowed_extensions"`
	IgnoreNames       []string `json:"ignore_names"`
	IgnorePaths       []string `json:"ignore_paths"`

	// IndexBatchSizeDir bounds how many file paths the indexer buffers
	// before a flushing BulkInsertFiles commit, per spec.md §4.7's
	// "buffers up to batch_size_dir file names... before flushing".
	IndexBatchSizeDir int `json:"index_batch_size_dir"`

	FirstLoop  FirstLoopOptions  `json:"first_loop"`
	SecondLoop SecondLoopOptions `json:"second_loop"`

	RetainProgress bool `json:"retain_progress"`
}

// DefaultConfig returns a Config populated with the defaults named across
// spec.md §3/§6/§9: the stdlib-covered allowed extensions (bmp/tiff/webp
// are accepted names but decode to a DecodeError until a codec is
// registered, per Open Question 3 in SPEC_FULL.md), and the default
// dequeue multipliers.
func DefaultConfig() Config {
	return Config{
		TargetWidth:       64,
		TargetHeight:      64,
		AllowedExtensions: []string{"jpg", "jpeg", "png", "bmp", "tiff", "tif", "gif", "webp"},
		IgnoreNames:       []string{".temp_thumb"},
		IndexBatchSizeDir: 4096,
		FirstLoop: FirstLoopOptions{
			ComputeHash: true,
			ShiftAmount: 0,
			BatchSize:   64,
			Parallel:    true,
			CPUProc:     4,
		},
		SecondLoop: SecondLoopOptions{
			CPUProc:                4,
			BatchSize:              16,
			MatchAspectBy:          -1,
			UseRAMCache:            true,
			BatchDequeueMultiplier: 2,
			ItemDequeueMultiplier:  1,
		},
		RetainProgress: true,
	}
}

// TaskFile is the on-disk document described in spec.md §6: the
// persisted config and current progress enum, serialized next to the
// catalog (default name .task.json).
type TaskFile struct {
	Config     Config `json:"config"`
	Progress   Progress `json:"progress"`
	CacheIndex int64  `json:"cache_index"`
}

// LoadTaskFile reads and decodes the task file at path. A missing file is
// not an error: callers should fall back to DefaultConfig and Progress
// Init.
func LoadTaskFile(path string) (TaskFile, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied, same trust boundary as the catalog file itself
	if err != nil {
		if os.IsNotExist(err) {
			return TaskFile{}, false, nil
		}
		return TaskFile{}, false, common.NewError(common.KindConfig, "read task file", err)
	}
	var tf TaskFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return TaskFile{}, false, common.NewError(common.KindConfig, "parse task file", err)
	}
	return tf, true, nil
}

// SaveTaskFile writes tf to path atomically: encode to a sibling temp
// file, then rename over the destination, so a crash mid-write never
// leaves a truncated task file for the next resume to choke on.
func SaveTaskFile(path string, tf TaskFile) error {
	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return common.NewError(common.KindConfig, "encode task file", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return common.NewError(common.KindConfig, "write task file temp", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return common.NewError(common.KindConfig, "rename task file", err)
	}
	return nil
}

// DefaultTaskFilePath returns the default task-file location next to
// rootA, per spec.md §6.
func DefaultTaskFilePath(rootA string) string {
	return filepath.Join(rootA, ".task.json")
}

// DefaultCatalogPath returns the default catalog database location next
// to rootA, per spec.md §6.
func DefaultCatalogPath(rootA string) string {
	return filepath.Join(rootA, ".fast_diff.db")
}

// DefaultThumbnailDir returns the default thumbnail directory next to
// rootA, per spec.md §6. Its name always begins with .temp_thumb so the
// indexer's own ignore rule excludes it.
func DefaultThumbnailDir(rootA string) string {
	return filepath.Join(rootA, ".temp_thumb")
}
