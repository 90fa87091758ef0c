package essence

import (
	"log/slog"

	"github.com/meigma/essence/cache"
	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/sga"
)

// Option configures Open.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	cache       cache.Cache
	verify      bool
	maxFileSize uint64
	sections    []string
	concurrency int
}

// WithLogger sets the logger passed to every archive and module opened.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithCache shares c between the archives opened, caching inflated files.
func WithCache(c cache.Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithVerifyHashes checks stored file hashes of archives that carry them.
func WithVerifyHashes(enabled bool) Option {
	return func(c *config) {
		c.verify = enabled
	}
}

// WithMaxFileSize rejects archive files larger than limit bytes once
// inflated. Zero means no limit.
func WithMaxFileSize(limit uint64) Option {
	return func(c *config) {
		c.maxFileSize = limit
	}
}

// WithSections overrides the module sections searched, in priority order.
func WithSections(sections ...string) Option {
	return func(c *config) {
		c.sections = sections
	}
}

// WithOpenConcurrency sets how many module archives are opened at once.
func WithOpenConcurrency(n int) Option {
	return func(c *config) {
		c.concurrency = n
	}
}

func (c *config) archiveOptions() []sga.Option {
	opts := []sga.Option{sga.WithLogger(c.logger), sga.WithVerifyHashes(c.verify)}
	if c.cache != nil {
		opts = append(opts, sga.WithCache(c.cache))
	}
	if c.maxFileSize > 0 {
		opts = append(opts, sga.WithMaxFileSize(c.maxFileSize))
	}
	return opts
}

func (c *config) moduleOptions() []filesource.Option {
	opts := []filesource.Option{
		filesource.WithLogger(c.logger),
		filesource.WithArchiveOptions(c.archiveOptions()...),
	}
	if len(c.sections) > 0 {
		opts = append(opts, filesource.WithSections(c.sections...))
	}
	if c.concurrency > 0 {
		opts = append(opts, filesource.WithOpenConcurrency(c.concurrency))
	}
	return opts
}
