package testutil

import (
	"bytes"
	"encoding/binary"
)

// ChunkyMagic is the 16-byte signature of a chunky file.
const ChunkyMagic = "Relic Chunky\r\n\x1a\x00"

// Chunk describes a chunk for EncodeChunky. Kind and Type are given as
// strings; Type is left-padded with NUL bytes when shorter than four
// characters.
type Chunk struct {
	Kind     string
	Type     string
	Version  uint32
	Name     string
	Data     []byte
	Children []Chunk
}

// EncodeChunky encodes a chunky file of the given format version directly,
// without going through a writer. Version 3 files use 28-byte chunk headers
// and a 36-byte file header; older versions use 20-byte chunk headers and a
// 28-byte file header.
func EncodeChunky(version uint32, chunks ...Chunk) []byte {
	var buf bytes.Buffer
	buf.WriteString(ChunkyMagic)
	le := binary.LittleEndian
	buf.Write(le.AppendUint32(nil, version))
	buf.Write(le.AppendUint32(nil, 1))
	if version >= 3 {
		buf.Write(le.AppendUint32(nil, 36))
		buf.Write(le.AppendUint32(nil, 28))
		buf.Write(le.AppendUint32(nil, 1))
	} else {
		buf.Write(le.AppendUint32(nil, 28))
	}
	for _, c := range chunks {
		buf.Write(encodeChunk(version, c))
	}
	return buf.Bytes()
}

func encodeChunk(version uint32, c Chunk) []byte {
	body := c.Data
	if c.Kind == "FOLD" {
		var inner bytes.Buffer
		for _, child := range c.Children {
			inner.Write(encodeChunk(version, child))
		}
		body = inner.Bytes()
	}
	var name []byte
	if c.Name != "" {
		name = append([]byte(c.Name), 0)
	}

	le := binary.LittleEndian
	out := []byte(c.Kind)
	out = append(out, PadType(c.Type)...)
	out = le.AppendUint32(out, c.Version)
	out = le.AppendUint32(out, uint32(len(body))) //nolint:gosec // test fixtures are small
	out = le.AppendUint32(out, uint32(len(name))) //nolint:gosec // test fixtures are small
	if version >= 3 {
		out = le.AppendUint32(out, 0xFFFFFFFF)
		out = le.AppendUint32(out, 0)
	}
	out = append(out, name...)
	return append(out, body...)
}

// PadType left-pads a chunk type to four bytes.
func PadType(t string) []byte {
	if len(t) >= 4 {
		return []byte(t[:4])
	}
	out := make([]byte, 4)
	copy(out[4-len(t):], t)
	return out
}

// Fields encodes values little-endian back to back. Strings are written as
// a u32 length followed by the bytes.
func Fields(values ...any) []byte {
	var buf bytes.Buffer
	for _, v := range values {
		switch v := v.(type) {
		case string:
			_ = binary.Write(&buf, binary.LittleEndian, uint32(len(v))) //nolint:gosec // test fixtures are small
			buf.WriteString(v)
		case []byte:
			buf.Write(v)
		default:
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				panic(err)
			}
		}
	}
	return buf.Bytes()
}
