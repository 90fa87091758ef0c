package chunky

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/meigma/essence/mappable"
)

const (
	// Magic is the 16-byte signature at the start of every chunky file.
	Magic = "Relic Chunky\r\n\x1a\x00"

	// FileHeaderSize is the size of the fixed file header fields.
	FileHeaderSize = 28

	// LegacyChunkHeaderSize is the chunk header size of format versions
	// before 3: kind, type, version, data size and name size.
	LegacyChunkHeaderSize = 20

	// ChunkHeaderSize is the chunk header size of format version 3, which
	// appends two reserved words.
	ChunkHeaderSize = 28

	maxChunkHeaderSize = 64
)

// File is an open chunky file. It embeds the root pseudo-chunk, whose
// children are the top-level chunks of the file.
type File struct {
	Chunk

	file          mappable.File
	mapping       *mappable.Mapping
	formatVersion uint32
	platform      uint32
}

// Open validates the chunky header of f and maps its chunk region. On
// success the File owns f and closes it on Close.
func Open(f mappable.File) (*File, error) {
	size := f.Size()
	if size < FileHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", ErrNotChunky, size)
	}
	hm, err := f.Map(0, min(size, FileHeaderSize+4))
	if err != nil {
		return nil, err
	}
	header := hm.Bytes()
	if string(header[:16]) != Magic {
		_ = hm.Close()
		return nil, fmt.Errorf("%w: bad signature", ErrNotChunky)
	}
	le := binary.LittleEndian
	version := le.Uint32(header[16:20])
	platform := le.Uint32(header[20:24])
	dataOffset := uint64(le.Uint32(header[24:28]))
	headerSize := LegacyChunkHeaderSize
	if version >= 3 {
		headerSize = ChunkHeaderSize
		if dataOffset >= FileHeaderSize+4 && len(header) >= FileHeaderSize+4 {
			declared := int(le.Uint32(header[28:32]))
			if declared >= LegacyChunkHeaderSize && declared <= maxChunkHeaderSize {
				headerSize = declared
			}
		}
	}
	if err := hm.Close(); err != nil {
		return nil, err
	}
	if dataOffset > size {
		return nil, fmt.Errorf("%w: data offset %d beyond end of file", ErrNotChunky, dataOffset)
	}

	m, err := f.Map(dataOffset, size)
	if err != nil {
		return nil, err
	}
	return &File{
		Chunk: Chunk{
			kind:       KindRoot,
			typ:        KindRoot,
			version:    version,
			contents:   m.Bytes(),
			headerSize: headerSize,
		},
		file:          f,
		mapping:       m,
		formatVersion: version,
		platform:      platform,
	}, nil
}

// OpenPath opens the chunky file at path.
func OpenPath(path string) (*File, error) {
	f, err := mappable.Open(path)
	if err != nil {
		return nil, err
	}
	cf, err := Open(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, nil
}

// Root returns the root pseudo-chunk.
func (f *File) Root() *Chunk {
	return &f.Chunk
}

// FormatVersion returns the version field of the file header.
func (f *File) FormatVersion() uint32 {
	return f.formatVersion
}

// Platform returns the platform field of the file header.
func (f *File) Platform() uint32 {
	return f.platform
}

// ChunkHeaderSize returns the size of each chunk header in this file.
func (f *File) ChunkHeaderSize() int {
	return f.headerSize
}

// Close unmaps the file and closes the underlying mappable file. Chunks
// obtained from f must not be used afterwards.
func (f *File) Close() error {
	err := errors.Join(f.mapping.Close(), f.file.Close())
	f.contents = nil
	return err
}
