package chunky

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Reader reads a sequence of little-endian fields from a chunk's contents.
//
// Errors are sticky: after the first failed read every subsequent read
// returns a zero value and Err reports the first failure. Callers read a
// run of fields and check Err once.
type Reader struct {
	data  []byte
	pos   int
	chunk Tag
	err   error
}

// NewReader returns a reader over b. It is mostly useful for payloads that
// were not obtained from a Chunk.
func NewReader(b []byte) *Reader {
	return &Reader{data: b}
}

// Err returns the first error encountered by the reader.
func (r *Reader) Err() error {
	return r.err
}

// Tell returns the current offset.
func (r *Reader) Tell() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Skip advances the reader by n bytes.
func (r *Reader) Skip(n int) {
	r.take(n)
}

// Bytes returns the next n bytes. The slice aliases the chunk contents.
func (r *Reader) Bytes(n int) []byte {
	return r.take(n)
}

// Uint8 reads one byte.
func (r *Reader) Uint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

// Uint16 reads a little-endian u16.
func (r *Reader) Uint16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

// Uint32 reads a little-endian u32.
func (r *Reader) Uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// Int32 reads a little-endian i32.
func (r *Reader) Int32() int32 {
	return int32(r.Uint32()) //nolint:gosec // reinterpretation
}

// Float32 reads a little-endian IEEE 754 float.
func (r *Reader) Float32() float32 {
	return math.Float32frombits(r.Uint32())
}

// String reads a u32 length followed by that many bytes. Trailing NULs are
// removed.
func (r *Reader) String() string {
	n := r.Uint32()
	if r.err != nil {
		return ""
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.fail(int(min(n, math.MaxInt32)))
		return ""
	}
	return string(bytes.TrimRight(r.take(int(n)), "\x00"))
}

// Decode reads a fixed-size value into v, which must be a pointer to a
// fixed-size type or a slice of fixed-size values, as for binary.Decode.
func (r *Reader) Decode(v any) error {
	if r.err != nil {
		return r.err
	}
	n := binary.Size(v)
	if n < 0 {
		r.err = fmt.Errorf("chunky: cannot decode %T", v)
		return r.err
	}
	b := r.take(n)
	if b == nil && n > 0 {
		return r.err
	}
	if _, err := binary.Decode(b, binary.LittleEndian, v); err != nil {
		r.err = fmt.Errorf("decode %T: %w", v, err)
	}
	return r.err
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.Remaining() {
		r.fail(n)
		return nil
	}
	b := r.data[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) fail(n int) {
	if r.chunk != 0 {
		r.err = fmt.Errorf("%w: %s needs %d bytes at offset %d, %d remain",
			ErrUnexpectedEnd, r.chunk, n, r.pos, r.Remaining())
		return
	}
	r.err = fmt.Errorf("%w: need %d bytes at offset %d, %d remain",
		ErrUnexpectedEnd, n, r.pos, r.Remaining())
}
