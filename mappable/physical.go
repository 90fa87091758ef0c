package mappable

import (
	"errors"
	"fmt"
	"os"
)

// DefaultSmallFileThreshold is the largest file Open reads eagerly instead of
// mapping on demand.
const DefaultSmallFileThreshold = 1 << 20

var errDirectory = errors.New("is a directory")

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	smallThreshold uint64
}

// WithSmallFileThreshold sets the size at or below which Open reads the whole
// file up front. Zero disables the small-file path.
func WithSmallFileThreshold(n uint64) Option {
	return func(c *openConfig) {
		c.smallThreshold = n
	}
}

// Open opens the file at path for mapping. Files no larger than the small
// file threshold are mapped once in full and served from that buffer.
func Open(path string, opts ...Option) (File, error) {
	cfg := openConfig{smallThreshold: DefaultSmallFileThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := OpenPhysical(path)
	if err != nil {
		return nil, err
	}
	if cfg.smallThreshold == 0 || f.Size() > cfg.smallThreshold {
		return f, nil
	}
	small, err := NewSmall(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return small, nil
}

// OpenPhysical opens the file at path and maps ranges on demand.
func OpenPhysical(path string) (*Physical, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &os.PathError{Op: "open", Path: path, Err: errDirectory}
	}
	return &Physical{
		file:        f,
		size:        uint64(info.Size()), //nolint:gosec // stat sizes are non-negative
		granularity: granularity(),
	}, nil
}

// Physical is a File backed by an operating system file.
type Physical struct {
	file        *os.File
	size        uint64
	granularity uint64
}

// Size implements File.
func (p *Physical) Size() uint64 {
	return p.size
}

// Expand implements File by rounding the range out to the mapping
// granularity, clamped to the file size.
func (p *Physical) Expand(begin, end uint64) (uint64, uint64) {
	mask := p.granularity - 1
	begin &^= mask
	if end < p.size {
		end = (end + mask) &^ mask
		end = min(end, p.size)
	}
	return begin, end
}

// Map implements File.
func (p *Physical) Map(begin, end uint64) (*Mapping, error) {
	if err := checkRange(begin, end, p.size); err != nil {
		return nil, err
	}
	if begin == end {
		return newMapping(nil, nil), nil
	}
	length := end - begin
	padding := begin & (p.granularity - 1)
	begin, end = p.Expand(begin, end)
	return p.mapRange(begin, end, padding, length)
}

// Close implements File.
func (p *Physical) Close() error {
	return p.file.Close()
}

// Name returns the path the file was opened with.
func (p *Physical) Name() string {
	return p.file.Name()
}

var _ File = (*Physical)(nil)
