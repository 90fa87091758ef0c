// Package arena provides a bump allocator with deferred, ordered cleanup.
//
// An Arena ties the lifetime of many allocations and resources to a single
// owner. Byte allocations are carved out of large blocks and are never freed
// individually; cleanups registered with Defer, AddCloser or Make run in
// registration order when the arena is released.
//
// An Arena is not safe for concurrent use.
package arena

import (
	"errors"
	"fmt"
	"io"
)

const (
	// minBlockSize is the floor for the block size search.
	minBlockSize = 32 << 10

	// alignment applied to every byte allocation.
	alignment = 16

	// MaxAllocation is the largest single allocation an Arena will serve.
	MaxAllocation = 1 << 34
)

var (
	// ErrOutOfMemory is returned when an allocation cannot be satisfied.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrReleased is returned when allocating from a released arena.
	ErrReleased = errors.New("arena: released")
)

// Stats reports how much memory an arena has handed out.
type Stats struct {
	Blocks       int
	BlockBytes   uint64
	TrivialBytes uint64
	TrivialCount int
	CleanupCount int
	Capacity     uint64
}

// Arena is a region allocator. The zero value is ready to use.
type Arena struct {
	blocks   [][]byte
	top      int // free bytes left below the last allocation
	presized bool
	cleanups []func() error
	released bool
	stats    Stats
}

// New returns an empty growable arena.
func New() *Arena {
	return &Arena{}
}

// NewSized returns an arena backed by exactly one block of capacity bytes.
// Allocations beyond the capacity fail with ErrOutOfMemory instead of
// growing the arena.
func NewSized(capacity int) (*Arena, error) {
	if capacity < 0 || capacity > MaxAllocation {
		return nil, fmt.Errorf("%w: presized capacity %d", ErrOutOfMemory, capacity)
	}
	a := &Arena{presized: true}
	a.addBlock(capacity)
	a.stats.Capacity = uint64(capacity)
	return a, nil
}

// Alloc returns n zeroed bytes owned by the arena.
//
// The slice stays valid until Release. Its capacity is clipped to n so that
// appends never spill into neighbouring allocations.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if a.released {
		return nil, ErrReleased
	}
	if n < 0 || n > MaxAllocation {
		return nil, fmt.Errorf("%w: allocation of %d bytes", ErrOutOfMemory, n)
	}
	size := n
	if !a.presized {
		size = align(n)
	}
	if err := a.ensure(size); err != nil {
		return nil, err
	}

	// Allocations grow down from the end of the block.
	block := a.blocks[len(a.blocks)-1]
	a.top -= size
	a.stats.TrivialBytes += uint64(n)
	a.stats.TrivialCount++
	return block[a.top : a.top+n : a.top+n], nil
}

// Clone copies b into arena memory.
func (a *Arena) Clone(b []byte) ([]byte, error) {
	dst, err := a.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(dst, b)
	return dst, nil
}

// Defer registers fn to run when the arena is released.
func (a *Arena) Defer(fn func() error) {
	if fn == nil {
		return
	}
	a.cleanups = append(a.cleanups, fn)
	a.stats.CleanupCount++
}

// AddCloser registers c to be closed when the arena is released.
func (a *Arena) AddCloser(c io.Closer) {
	if c == nil {
		return
	}
	a.Defer(c.Close)
}

// Make allocates a T whose release function runs with the arena.
func Make[T any](a *Arena, release func(*T) error) *T {
	v := new(T)
	if release != nil {
		a.Defer(func() error { return release(v) })
	}
	return v
}

// Release runs every registered cleanup in registration order and drops the
// arena's blocks. Cleanup errors are joined. Release is idempotent.
func (a *Arena) Release() error {
	if a.released {
		return nil
	}
	a.released = true

	var errs []error
	for _, fn := range a.cleanups {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	a.blocks = nil
	a.top = 0
	return errors.Join(errs...)
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}

// Stats returns allocation statistics.
func (a *Arena) Stats() Stats {
	return a.stats
}

func (a *Arena) ensure(size int) error {
	if len(a.blocks) > 0 && a.top >= size {
		return nil
	}
	if a.presized {
		return fmt.Errorf("%w: presized arena is too small", ErrOutOfMemory)
	}

	blockSize := minBlockSize
	for blockSize < size {
		blockSize <<= 1
	}
	blockSize <<= 1
	a.addBlock(blockSize)
	return nil
}

func (a *Arena) addBlock(size int) {
	a.blocks = append(a.blocks, make([]byte, size))
	a.top = size
	a.stats.Blocks++
	a.stats.BlockBytes += uint64(size)
}

func align(n int) int {
	return (n + alignment - 1) &^ (alignment - 1)
}
