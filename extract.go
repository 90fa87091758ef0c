package essence

import (
	"context"
	"log/slog"
	"os"

	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/internal/batch"
)

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite      bool
	directWrites   bool
	workers        int
	readAheadBytes int64
	logger         *slog.Logger
}

// ExtractWithOverwrite replaces existing files. By default they are
// skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithDirectWrites writes files in place instead of through a
// temporary file.
func ExtractWithDirectWrites(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.directWrites = enabled
	}
}

// ExtractWithWorkers sets how many files are extracted at once. Values < 0
// force serial extraction; zero uses GOMAXPROCS.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithReadAheadBytes caps the bytes held in memory by busy workers.
func ExtractWithReadAheadBytes(limit int64) ExtractOption {
	return func(c *extractConfig) {
		c.readAheadBytes = limit
	}
}

// ExtractWithLogger sets the logger for extraction.
func ExtractWithLogger(logger *slog.Logger) ExtractOption {
	return func(c *extractConfig) {
		c.logger = logger
	}
}

// ExtractStats summarises an extraction.
type ExtractStats struct {
	Extracted int
	Skipped   int
	Bytes     uint64
}

// Extract copies every file under dir in src to destDir, keeping the
// directory structure. Paths are extracted in their normalized lowercase
// form. destDir is created if needed.
func Extract(ctx context.Context, src filesource.FileSource, destDir, dir string, opts ...ExtractOption) (ExtractStats, error) {
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var paths []string
	for p, err := range filesource.Walk(src, dir) {
		if err != nil {
			return ExtractStats{}, err
		}
		paths = append(paths, p)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return ExtractStats{}, err
	}

	sink := batch.NewFileSink(destDir,
		batch.WithOverwrite(cfg.overwrite),
		batch.WithDirectWrites(cfg.directWrites),
	)
	proc := batch.NewProcessor(src,
		batch.WithWorkers(cfg.workers),
		batch.WithReadAheadBytes(cfg.readAheadBytes),
		batch.WithLogger(cfg.logger),
	)
	stats, err := proc.Process(ctx, paths, sink)
	return ExtractStats{Extracted: stats.Processed, Skipped: stats.Skipped, Bytes: stats.TotalBytes}, err
}
