// Command fast-image-deduplicator runs the resumable image-deduplication
// pipeline: it indexes one or two directory trees, preprocesses every
// image, plans the candidate pair space, and compares pairs for
// near-duplicates, checkpointing its progress after every batch so a
// killed run picks back up where it left off.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/catalog"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/clock"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/filesystem"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/infra/log"
	"github.com/AliSot2000/Fast-Image-Deduplicator/internal/pipeline"
)

func main() {
	rootA := flag.String("root-a", "", "directory tree to index (required)")
	rootB := flag.String("root-b", "", "second directory tree; omit to deduplicate root-a against itself")
	catalogPath := flag.String("catalog", "", "sqlite catalog path (default: <root-a>/.fast_diff.db)")
	taskPath := flag.String("task-file", "", "task file path (default: <root-a>/.task.json)")
	thumbDir := flag.String("thumb-dir", "", "thumbnail directory (default: <root-a>/.temp_thumb)")
	logPath := flag.String("log-file", "", "append a copy of log output to this file in addition to the console")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	if *rootA == "" {
		fmt.Fprintln(os.Stderr, "fast-image-deduplicator: -root-a is required")
		flag.Usage()
		os.Exit(2)
	}

	level := log.INFO
	if *verbose {
		level = log.DEBUG
	}
	logger, err := newLogger(level, *logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fast-image-deduplicator: %v\n", err)
		os.Exit(1)
	}

	if *catalogPath == "" {
		*catalogPath = catalog.DefaultCatalogPath(*rootA)
	}
	if *taskPath == "" {
		*taskPath = catalog.DefaultTaskFilePath(*rootA)
	}
	if *thumbDir == "" {
		*thumbDir = catalog.DefaultThumbnailDir(*rootA)
	}

	cfg := catalog.DefaultConfig()
	cfg.RootA = *rootA
	cfg.RootB = *rootB

	if err := run(cfg, *catalogPath, *taskPath, *thumbDir, logger); err != nil {
		logger.Errorf("run failed: %v", err)
		os.Exit(1)
	}
}

func newLogger(level log.Level, logPath string) (log.Logger, error) {
	console, err := log.NewConsoleLogger(level)
	if err != nil {
		return nil, fmt.Errorf("create console logger: %w", err)
	}
	if logPath == "" {
		return console, nil
	}
	file, err := log.NewFileLogger(logPath, level)
	if err != nil {
		return nil, fmt.Errorf("create file logger: %w", err)
	}
	return log.NewMultiLogger(console, file), nil
}

func run(cfg catalog.Config, catalogPath, taskPath, thumbDir string, logger log.Logger) error {
	store, err := catalog.Open(catalogPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fs := filesystem.NewDefaultFileSystem()
	if err := fs.MkdirAll(thumbDir, 0o755); err != nil {
		return err
	}

	driver := pipeline.New(store, fs, logger, clock.NewDefaultClock(), taskPath, thumbDir, cfg)
	if err := driver.Resume(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return driver.Run(ctx)
}
