package chunky

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"iter"
)

// Chunk is a read-only view of one chunk inside a File. It is valid until the
// File is closed.
type Chunk struct {
	kind       Tag
	typ        Tag
	version    uint32
	name       []byte
	contents   []byte
	headerSize int
}

// Kind returns the chunk kind: KindFold, KindData or KindRoot.
func (c *Chunk) Kind() Tag { return c.kind }

// Type returns the chunk type.
func (c *Chunk) Type() Tag { return c.typ }

// Version returns the chunk version.
func (c *Chunk) Version() uint32 { return c.version }

// Size returns the number of content bytes.
func (c *Chunk) Size() int { return len(c.contents) }

// Contents returns the chunk payload. It must not be modified.
func (c *Chunk) Contents() []byte { return c.contents }

// Name returns the chunk's descriptive name with trailing NULs removed.
func (c *Chunk) Name() string {
	return string(bytes.TrimRight(c.name, "\x00"))
}

// IsFolder reports whether the chunk can contain children.
func (c *Chunk) IsFolder() bool {
	return c != nil && c.kind != KindData
}

// String returns the chunk's kind, type and version in query form.
func (c *Chunk) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s%s v%d", c.kind, c.typ, c.version)
}

// Children yields the chunk's children in file order.
//
// A child is yielded only while its header, name and contents lie within
// the parent's contents; iteration stops at the first child that does not.
// Data chunks and nil chunks have no children.
func (c *Chunk) Children() iter.Seq[*Chunk] {
	return func(yield func(*Chunk) bool) {
		if !c.IsFolder() {
			return
		}
		data := c.contents
		pos := 0
		for {
			child, next, ok := parseChunk(data, pos, c.headerSize)
			if !ok {
				return
			}
			if !yield(child) {
				return
			}
			pos = next
		}
	}
}

// parseChunk decodes the chunk header at data[pos:] and returns the chunk and
// the offset of its successor.
func parseChunk(data []byte, pos, headerSize int) (*Chunk, int, bool) {
	if pos < 0 || headerSize > len(data)-pos {
		return nil, 0, false
	}
	h := data[pos : pos+headerSize]
	le := binary.LittleEndian
	dataSize := uint64(le.Uint32(h[12:16]))
	nameSize := uint64(le.Uint32(h[16:20]))

	nameStart := uint64(pos + headerSize)
	contentStart := nameStart + nameSize
	end := contentStart + dataSize
	if end > uint64(len(data)) {
		return nil, 0, false
	}
	return &Chunk{
		kind:       Tag(le.Uint32(h[0:4])),
		typ:        Tag(le.Uint32(h[4:8])),
		version:    le.Uint32(h[8:12]),
		name:       data[nameStart:contentStart:contentStart],
		contents:   data[contentStart:end:end],
		headerSize: headerSize,
	}, int(end), true //nolint:gosec // end <= len(data)
}

// FindFirst returns the first child matching query, or nil. It may be called
// on a nil chunk.
func (c *Chunk) FindFirst(query string) *Chunk {
	return c.Find(ParseQuery(query))
}

// FindAll returns every child matching query. It may be called on a nil
// chunk.
func (c *Chunk) FindAll(query string) []*Chunk {
	return c.FindAllQuery(ParseQuery(query))
}

// Find returns the first child matching q, or nil.
func (c *Chunk) Find(q Query) *Chunk {
	for child := range c.Children() {
		if q.Match(child) {
			return child
		}
	}
	return nil
}

// FindAllQuery returns every child matching q.
func (c *Chunk) FindAllQuery(q Query) []*Chunk {
	var out []*Chunk
	for child := range c.Children() {
		if q.Match(child) {
			out = append(out, child)
		}
	}
	return out
}

// Require is FindFirst that reports a missing child as ErrMissingChunk.
func (c *Chunk) Require(query string) (*Chunk, error) {
	child := c.FindFirst(query)
	if child == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingChunk, query, c)
	}
	return child, nil
}

// Reader returns a sequential field reader over the chunk's contents.
func (c *Chunk) Reader() *Reader {
	if c == nil {
		return &Reader{err: fmt.Errorf("%w: nil chunk", ErrMissingChunk)}
	}
	return &Reader{data: c.contents, chunk: c.typ}
}
