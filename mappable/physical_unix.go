//go:build unix

package mappable

import (
	"fmt"
	"math"

	"golang.org/x/sys/unix"
)

func granularity() uint64 {
	return uint64(unix.Getpagesize()) //nolint:gosec // page size is positive
}

func (p *Physical) mapRange(begin, end, padding, length uint64) (*Mapping, error) {
	size := end - begin
	if size > math.MaxInt || begin > math.MaxInt64 {
		return nil, fmt.Errorf("%w: range too large to map as a single block", ErrOutOfRange)
	}
	data, err := unix.Mmap(int(p.file.Fd()), int64(begin), int(size), unix.PROT_READ, unix.MAP_SHARED) //nolint:gosec // checked above
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", p.file.Name(), err)
	}
	return newMapping(data[padding:padding+length:padding+length], func() error {
		return unix.Munmap(data)
	}), nil
}
