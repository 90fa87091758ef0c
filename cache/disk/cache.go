// Package disk keeps inflated archive files on the local file system so
// that later runs can skip decompression.
package disk

import (
	_ "crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/essence/cache"
)

var (
	// ErrNoDir is returned by New when no directory is given.
	ErrNoDir = errors.New("disk: cache directory not set")

	// ErrInvalidOption is returned by New for negative limits.
	ErrInvalidOption = errors.New("disk: invalid option")
)

const (
	defaultShardPrefixLen = 2
	dirPerm               = 0o700
	// tempPrefix marks entries that are still being written.
	tempPrefix = ".put-"
)

// Cache stores each entry in a file named by the canonical digest of its key,
// grouped into subdirectories by the first characters of that name. It is
// safe for concurrent use, including by several processes sharing a
// directory.
type Cache struct {
	dir      string
	shard    int
	maxBytes int64
	logger   *slog.Logger

	size    atomic.Int64
	pruneMu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithShardPrefixLen sets how many hex characters of the entry name form
// its subdirectory. Zero stores every entry directly in the cache
// directory. The default is 2.
func WithShardPrefixLen(n int) Option {
	return func(c *Cache) {
		c.shard = n
	}
}

// WithMaxBytes bounds the size of the cache. When a Put would exceed it the
// oldest entries are removed first. Zero means unbounded.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// WithLogger sets the logger used to report pruning.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func (c *Cache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New opens the cache in dir, creating the directory if needed. The size of
// entries already present counts towards the limit.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, ErrNoDir
	}
	c := &Cache{dir: dir, shard: defaultShardPrefixLen}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.shard < 0:
		return nil, fmt.Errorf("%w: shard prefix length %d", ErrInvalidOption, c.shard)
	case c.maxBytes < 0:
		return nil, fmt.Errorf("%w: max bytes %d", ErrInvalidOption, c.maxBytes)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	entries, err := scan(dir)
	if err != nil {
		return nil, err
	}
	c.size.Store(totalSize(entries))
	return c, nil
}

// Get implements cache.Cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.entryPath(key))
	return data, err == nil
}

// Put implements cache.Cache. Entries are immutable: putting a key that is
// already present does nothing. Content larger than the limit is dropped
// without error.
func (c *Cache) Put(key string, content []byte) error {
	path := c.entryPath(key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	n := int64(len(content))
	if fits, err := c.reserve(n); !fits || err != nil {
		return err
	}
	if err := writeAtomic(path, content); err != nil {
		return err
	}
	c.size.Add(n)
	return nil
}

// writeAtomic writes content to a temporary file beside path and renames it
// into place.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(content)
	err = errors.Join(err, tmp.Close())
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		return errors.Join(err, os.Remove(tmp.Name()))
	}
	return nil
}

// Delete implements cache.Cache. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	path := c.entryPath(key)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	c.size.Add(-info.Size())
	return nil
}

// MaxBytes returns the size limit, zero when unbounded.
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// SizeBytes returns the total size of the cached entries.
func (c *Cache) SizeBytes() int64 {
	return c.size.Load()
}

// Prune removes entries, least recently written first, until at most
// targetBytes remain. It returns the number of bytes removed.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	c.pruneMu.Lock()
	defer c.pruneMu.Unlock()

	freed, remaining, err := evictOldest(c.dir, max(targetBytes, 0))
	if err != nil {
		return 0, err
	}
	c.size.Store(remaining)
	if freed > 0 {
		c.log().Debug("disk cache pruned", "dir", c.dir, "freed_bytes", freed, "remaining_bytes", remaining)
	}
	return freed, nil
}

func (c *Cache) entryPath(key string) string {
	name := digest.Canonical.FromString(key).Encoded()
	if c.shard == 0 {
		return filepath.Join(c.dir, name)
	}
	return filepath.Join(c.dir, name[:min(c.shard, len(name))], name)
}

// reserve makes room for n more bytes, pruning if needed. It reports false
// when n can never fit.
func (c *Cache) reserve(n int64) (bool, error) {
	switch {
	case c.maxBytes == 0:
		return true, nil
	case n > c.maxBytes:
		return false, nil
	case c.SizeBytes()+n <= c.maxBytes:
		return true, nil
	}
	if _, err := c.Prune(c.maxBytes - n); err != nil {
		return false, err
	}
	return c.SizeBytes()+n <= c.maxBytes, nil
}

var (
	_ cache.Cache = (*Cache)(nil)
	_ cache.Sized = (*Cache)(nil)
)
