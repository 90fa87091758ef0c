// Package cache provides caches for decompressed archive contents.
//
// Inflating a compressed archive entry is the expensive part of a read. A
// Cache keeps the inflated bytes keyed by a string that identifies the
// archive and the entry, so repeated reads of hot files skip the inflate.
package cache

// Cache stores inflated file contents by key.
//
// Implementations must be safe for concurrent use and handle their own size
// limits and eviction policies. Callers must not modify slices returned by
// Get or passed to Put.
type Cache interface {
	// Get returns the content stored under key.
	Get(key string) ([]byte, bool)

	// Put stores content under key. Implementations may decline to store
	// content, for example when it exceeds their size limit.
	Put(key string, content []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}

// Sized is implemented by caches that track their size.
type Sized interface {
	// MaxBytes returns the configured size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current size of cached content.
	SizeBytes() int64
}
