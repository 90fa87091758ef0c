package chunky

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithFormatVersion selects the file format version. Version 3, the default,
// writes 28-byte chunk headers; earlier versions write 20-byte headers.
func WithFormatVersion(v uint32) WriterOption {
	return func(w *Writer) {
		w.formatVersion = v
	}
}

// Writer produces a chunky file. Chunks are written depth first: BeginChunk
// opens a chunk inside the innermost open chunk, payload methods append to
// it, and EndChunk patches its size.
//
// The stack of open chunks is kept in the file itself. While a chunk is open
// its size field holds the offset of the enclosing chunk's size field, so
// the writer needs to read back what it wrote.
//
// Errors are sticky: once a write fails every later call returns the same
// error.
type Writer struct {
	w             io.ReadWriteSeeker
	formatVersion uint32
	headerSize    uint32
	innermost     uint32
	depth         int
	err           error
}

// NewWriter writes a chunky file header to w and returns a writer
// positioned at the first top-level chunk.
func NewWriter(w io.ReadWriteSeeker, opts ...WriterOption) (*Writer, error) {
	cw := &Writer{w: w, formatVersion: 3}
	for _, opt := range opts {
		opt(cw)
	}

	header := []byte(Magic)
	le := binary.LittleEndian
	header = le.AppendUint32(header, cw.formatVersion)
	header = le.AppendUint32(header, 1)
	if cw.formatVersion >= 3 {
		cw.headerSize = ChunkHeaderSize
		header = le.AppendUint32(header, FileHeaderSize+8)
		header = le.AppendUint32(header, ChunkHeaderSize)
		header = le.AppendUint32(header, 1)
	} else {
		cw.headerSize = LegacyChunkHeaderSize
		header = le.AppendUint32(header, FileHeaderSize)
	}
	cw.write(header)
	if cw.err != nil {
		return nil, cw.err
	}
	return cw, nil
}

// Depth returns the number of open chunks.
func (w *Writer) Depth() int {
	return w.depth
}

// BeginChunk opens a chunk of the given kind and type. A non-empty name is
// written with a terminating NUL.
func (w *Writer) BeginChunk(kind Tag, typ string, version uint32, name string) error {
	if w.err != nil {
		return w.err
	}
	var nameLen uint32
	if name != "" {
		if uint64(len(name)) >= math.MaxUint32 {
			w.err = fmt.Errorf("%w: name of %d bytes", ErrTooLarge, len(name))
			return w.err
		}
		nameLen = uint32(len(name) + 1) //nolint:gosec // checked above
	}
	start, err := w.tell()
	if err != nil {
		return err
	}

	kb, tb := kind.Bytes(), TypeTag(typ).Bytes()
	le := binary.LittleEndian
	header := append(kb[:], tb[:]...)
	header = le.AppendUint32(header, version)
	header = le.AppendUint32(header, w.innermost)
	header = le.AppendUint32(header, nameLen)
	if w.headerSize == ChunkHeaderSize {
		header = le.AppendUint32(header, math.MaxUint32)
		header = le.AppendUint32(header, 0)
	}
	if nameLen > 0 {
		header = append(header, name...)
		header = append(header, 0)
	}
	w.write(header)
	if w.err != nil {
		return w.err
	}
	w.innermost = start + 12
	w.depth++
	return nil
}

// Payload appends raw bytes to the innermost open chunk.
func (w *Writer) Payload(b []byte) error {
	w.write(b)
	return w.err
}

// Uint32 appends a little-endian u32.
func (w *Writer) Uint32(v uint32) error {
	return w.Payload(binary.LittleEndian.AppendUint32(nil, v))
}

// Float32 appends a little-endian IEEE 754 float.
func (w *Writer) Float32(v float32) error {
	return w.Uint32(math.Float32bits(v))
}

// String appends a u32 length followed by the bytes of s.
func (w *Writer) String(s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		w.err = fmt.Errorf("%w: string of %d bytes", ErrTooLarge, len(s))
		return w.err
	}
	if err := w.Uint32(uint32(len(s))); err != nil { //nolint:gosec // checked above
		return err
	}
	return w.Payload([]byte(s))
}

// EndChunk closes the innermost open chunk, patching its size field.
func (w *Writer) EndChunk() error {
	if w.err != nil {
		return w.err
	}
	if w.depth == 0 {
		return ErrNoOpenChunk
	}
	end, err := w.tell()
	if err != nil {
		return err
	}

	var fields [8]byte
	w.seek(int64(w.innermost), io.SeekStart)
	if w.err == nil {
		if _, err := io.ReadFull(w.w, fields[:]); err != nil {
			w.err = fmt.Errorf("chunky: read back chunk header: %w", err)
		}
	}
	if w.err != nil {
		return w.err
	}
	le := binary.LittleEndian
	parent := le.Uint32(fields[0:4])
	nameLen := le.Uint32(fields[4:8])
	start := uint64(w.innermost) + uint64(w.headerSize) - 12 + uint64(nameLen)
	if uint64(end) < start {
		w.err = fmt.Errorf("chunky: chunk at %d ends before its contents", w.innermost-12)
		return w.err
	}
	length := uint32(uint64(end) - start) //nolint:gosec // both offsets are u32

	w.seek(int64(w.innermost), io.SeekStart)
	w.write(le.AppendUint32(nil, length))
	w.seek(0, io.SeekEnd)
	if w.err != nil {
		return w.err
	}
	w.innermost = parent
	w.depth--
	return nil
}

// Close ends every chunk that is still open, innermost first. It does not
// close the underlying stream.
func (w *Writer) Close() error {
	for w.depth > 0 && w.err == nil {
		_ = w.EndChunk()
	}
	return w.err
}

func (w *Writer) tell() (uint32, error) {
	if w.err != nil {
		return 0, w.err
	}
	pos, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		w.err = fmt.Errorf("chunky: tell: %w", err)
		return 0, w.err
	}
	if pos > math.MaxUint32 {
		w.err = fmt.Errorf("%w: offset %d", ErrTooLarge, pos)
		return 0, w.err
	}
	return uint32(pos), nil
}

func (w *Writer) seek(off int64, whence int) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Seek(off, whence); err != nil {
		w.err = fmt.Errorf("chunky: seek: %w", err)
	}
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(b); err != nil {
		w.err = fmt.Errorf("chunky: write: %w", err)
	}
}
