// Package batch copies many files out of a file source concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/meigma/essence/mappable"
)

// Source opens files by path.
type Source interface {
	ReadFile(path string) (mappable.File, error)
}

// Stats summarises a Process call.
type Stats struct {
	// Processed is the number of files committed to the sink.
	Processed int

	// Skipped is the number of files the sink declined.
	Skipped int

	// TotalBytes is the size of all processed files.
	TotalBytes uint64
}

// Processor reads files from a source and hands their contents to a sink.
type Processor struct {
	src            Source
	workers        int // 0 = auto, <0 = serial, >0 = fixed count
	readAheadBytes int64
	logger         *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithWorkers sets the number of files processed at once.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithReadAheadBytes caps the total size of files held in memory by busy
// workers. A file larger than the cap waits for every other worker to
// finish. Zero disables the budget.
func WithReadAheadBytes(limit int64) ProcessorOption {
	return func(p *Processor) {
		p.readAheadBytes = max(limit, 0)
	}
}

// WithLogger sets the logger for batch operations.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor returns a processor reading from src.
func NewProcessor(src Source, opts ...ProcessorOption) *Processor {
	p := &Processor{src: src}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

func (p *Processor) workerCount(n int) int {
	switch {
	case p.workers < 0:
		return 1
	case p.workers > 0:
		return min(p.workers, n)
	default:
		return min(runtime.GOMAXPROCS(0), n)
	}
}

// Process copies each path from the source to the sink. Paths the sink
// declines are skipped. Processing stops at the first error; files already
// committed stay committed.
func (p *Processor) Process(ctx context.Context, paths []string, sink Sink) (Stats, error) {
	var stats Stats
	todo := make([]string, 0, len(paths))
	for _, path := range paths {
		if sink.ShouldProcess(path) {
			todo = append(todo, path)
		} else {
			stats.Skipped++
		}
	}
	if len(todo) == 0 {
		return stats, nil
	}

	var budget *semaphore.Weighted
	if p.readAheadBytes > 0 {
		budget = semaphore.NewWeighted(p.readAheadBytes)
	}
	workers := p.workerCount(len(todo))
	p.log().Debug("batch processing", "files", len(todo), "skipped", stats.Skipped, "workers", workers)

	var (
		processed atomic.Int64
		total     atomic.Uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range todo {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := p.processOne(gctx, path, sink, budget)
			if err != nil {
				return err
			}
			processed.Add(1)
			total.Add(n)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	stats.Processed = int(processed.Load())
	stats.TotalBytes = total.Load()
	return stats, err
}

func (p *Processor) processOne(ctx context.Context, path string, sink Sink, budget *semaphore.Weighted) (uint64, error) {
	f, err := p.src.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("batch: %w", err)
	}
	defer f.Close()

	size := f.Size()
	if budget != nil {
		weight := int64(min(size, uint64(p.readAheadBytes))) //nolint:gosec // capped by the budget
		if err := budget.Acquire(ctx, weight); err != nil {
			return 0, err
		}
		defer budget.Release(weight)
	}

	m, err := mappable.MapAll(f)
	if err != nil {
		return 0, fmt.Errorf("batch: %s: %w", path, err)
	}
	defer m.Close()

	w, err := sink.Writer(path)
	if err != nil {
		return 0, fmt.Errorf("batch: %s: %w", path, err)
	}
	if _, err := w.Write(m.Bytes()); err != nil {
		return 0, errors.Join(fmt.Errorf("batch: write %s: %w", path, err), w.Discard())
	}
	if err := w.Commit(); err != nil {
		return 0, fmt.Errorf("batch: commit %s: %w", path, err)
	}
	return size, nil
}
