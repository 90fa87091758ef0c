package mappable

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrOutOfRange is returned when a requested range does not lie inside the
// file.
var ErrOutOfRange = errors.New("mappable: range out of bounds")

// File is a source of mappable bytes.
type File interface {
	// Size returns the file size in bytes.
	Size() uint64

	// Map returns a view of [begin, end). It fails with ErrOutOfRange
	// unless begin <= end <= Size(). Empty ranges succeed.
	Map(begin, end uint64) (*Mapping, error)

	// Expand proposes a range covering [begin, end) that the file can map
	// efficiently. Callers that map the proposal may use the surplus bytes.
	Expand(begin, end uint64) (uint64, uint64)

	// Close releases the file. Mappings taken from the file must already
	// be closed.
	Close() error
}

// Mapping is an immutable view of a byte range.
type Mapping struct {
	data    []byte
	release func() error
	once    sync.Once
	err     error
}

func newMapping(data []byte, release func() error) *Mapping {
	return &Mapping{data: data, release: release}
}

// Bytes returns the mapped bytes. The slice must not be modified and is
// invalid after Close.
func (m *Mapping) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

// Len returns the number of mapped bytes.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.data)
}

// Close releases the mapping. It is safe to call more than once.
func (m *Mapping) Close() error {
	if m == nil {
		return nil
	}
	m.once.Do(func() {
		if m.release != nil {
			m.err = m.release()
		}
		m.data = nil
	})
	return m.err
}

// MapAll maps the whole of f.
func MapAll(f File) (*Mapping, error) {
	return f.Map(0, f.Size())
}

func checkRange(begin, end, size uint64) error {
	if begin > end || end > size {
		return fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, begin, end, size)
	}
	return nil
}

// Memory is a File backed by a byte slice it owns.
type Memory struct {
	data []byte
}

// NewMemory returns a File over b. The file takes ownership of b.
func NewMemory(b []byte) *Memory {
	return &Memory{data: b}
}

// Size implements File.
func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// Map implements File.
func (m *Memory) Map(begin, end uint64) (*Mapping, error) {
	if err := checkRange(begin, end, m.Size()); err != nil {
		return nil, err
	}
	return newMapping(m.data[begin:end:end], nil), nil
}

// Expand implements File. Memory files map any range at no cost.
func (m *Memory) Expand(begin, end uint64) (uint64, uint64) {
	return begin, end
}

// Close implements File.
func (m *Memory) Close() error {
	return nil
}

// Bytes returns the backing slice.
func (m *Memory) Bytes() []byte {
	return m.data
}

// Nested is a File exposing a sub-range of a parent file. Closing it does not
// close the parent.
type Nested struct {
	parent File
	begin  uint64
	size   uint64
}

// NewNested returns a File over [begin, begin+size) of parent.
func NewNested(parent File, begin, size uint64) (*Nested, error) {
	end := begin + size
	if end < begin {
		return nil, fmt.Errorf("%w: nested range overflows", ErrOutOfRange)
	}
	if err := checkRange(begin, end, parent.Size()); err != nil {
		return nil, err
	}
	return &Nested{parent: parent, begin: begin, size: size}, nil
}

// Size implements File.
func (n *Nested) Size() uint64 {
	return n.size
}

// Map implements File.
func (n *Nested) Map(begin, end uint64) (*Mapping, error) {
	if err := checkRange(begin, end, n.size); err != nil {
		return nil, err
	}
	return n.parent.Map(n.begin+begin, n.begin+end)
}

// Expand implements File by asking the parent and clamping the answer to
// the nested range.
func (n *Nested) Expand(begin, end uint64) (uint64, uint64) {
	pb, pe := n.parent.Expand(n.begin+begin, n.begin+end)
	pb = max(pb, n.begin) - n.begin
	pe = min(pe, n.begin+n.size) - n.begin
	return pb, pe
}

// Close implements File.
func (n *Nested) Close() error {
	return nil
}

// Small is a File that reads its whole underlying file up front and serves
// mappings as slices of that buffer.
type Small struct {
	file     File
	contents *Mapping
}

// NewSmall maps all of f and serves subsequent mappings from it. Closing the
// returned file closes f.
func NewSmall(f File) (*Small, error) {
	contents, err := MapAll(f)
	if err != nil {
		return nil, err
	}
	return &Small{file: f, contents: contents}, nil
}

// Size implements File.
func (s *Small) Size() uint64 {
	return s.file.Size()
}

// Map implements File. Empty and invalid requests are forwarded to the
// underlying file.
func (s *Small) Map(begin, end uint64) (*Mapping, error) {
	if begin < end && end <= s.Size() {
		return newMapping(s.contents.Bytes()[begin:end:end], nil), nil
	}
	return s.file.Map(begin, end)
}

// Expand implements File by proposing the whole file.
func (s *Small) Expand(begin, end uint64) (uint64, uint64) {
	if end < s.Size() {
		end = s.Size()
	}
	return 0, end
}

// Close implements File.
func (s *Small) Close() error {
	return errors.Join(s.contents.Close(), s.file.Close())
}

// ReaderAt adapts a File to io.ReaderAt.
type ReaderAt struct {
	f File
}

// NewReaderAt returns an io.ReaderAt over f.
func NewReaderAt(f File) *ReaderAt {
	return &ReaderAt{f: f}
}

// ReadAt implements io.ReaderAt.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: negative offset %d", ErrOutOfRange, off)
	}
	size := r.f.Size()
	begin := uint64(off)
	if begin >= size {
		return 0, io.EOF
	}
	end := min(begin+uint64(len(p)), size)
	m, err := r.f.Map(begin, end)
	if err != nil {
		return 0, err
	}
	n := copy(p, m.Bytes())
	if cerr := m.Close(); cerr != nil {
		return n, cerr
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the size of the underlying file.
func (r *ReaderAt) Size() int64 {
	return int64(r.f.Size()) //nolint:gosec // file sizes fit in int64
}

var (
	_ File        = (*Memory)(nil)
	_ File        = (*Nested)(nil)
	_ File        = (*Small)(nil)
	_ io.ReaderAt = (*ReaderAt)(nil)
)
