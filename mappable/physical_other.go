//go:build !unix

package mappable

import (
	"fmt"
	"io"
	"math"
)

func granularity() uint64 {
	return 1 << 16
}

func (p *Physical) mapRange(begin, end, padding, length uint64) (*Mapping, error) {
	if length > math.MaxInt {
		return nil, fmt.Errorf("%w: range too large to map as a single block", ErrOutOfRange)
	}
	buf := make([]byte, length)
	if _, err := p.file.ReadAt(buf, int64(begin+padding)); err != nil && err != io.EOF { //nolint:gosec // bounded by file size
		return nil, fmt.Errorf("read %s: %w", p.file.Name(), err)
	}
	return newMapping(buf, nil), nil
}
