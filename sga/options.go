package sga

import (
	"log/slog"

	"github.com/meigma/essence/cache"
)

// DefaultMaxFileSize is the default limit on the inflated size of a single
// compressed file.
const DefaultMaxFileSize = 512 << 20

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for archive operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithCache enables caching of inflated files.
//
// Cached content is served on later reads of the same stored bytes, and
// concurrent reads of one uncached file share a single inflate. Stored
// files are never cached because reading them costs nothing.
func WithCache(c cache.Cache) Option {
	return func(a *Archive) {
		a.cache = c
	}
}

// WithCacheNamespace sets the prefix of cache keys. Keys are derived from
// the compressed bytes of each file, so archives may share a namespace; the
// default is "sga".
func WithCacheNamespace(ns string) Option {
	return func(a *Archive) {
		a.cacheNamespace = ns
	}
}

// WithVerifyHashes enables verification of the per-file content hashes of
// version 6 archives. Other versions carry no hashes and ignore the option.
func WithVerifyHashes(enabled bool) Option {
	return func(a *Archive) {
		a.verifyHashes = enabled
	}
}

// WithMaxFileSize limits the inflated size of compressed files. Set limit to
// 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(a *Archive) {
		a.maxFileSize = limit
	}
}
