package chunky

import (
	"strconv"
	"strings"
)

// Tag is a four character code stored as a little-endian u32, so the first
// character is the least significant byte.
type Tag uint32

// Well-known chunk kinds.
const (
	KindData Tag = 'D' | 'A'<<8 | 'T'<<16 | 'A'<<24
	KindFold Tag = 'F' | 'O'<<8 | 'L'<<16 | 'D'<<24
	KindRoot Tag = 'R' | 'O'<<8 | 'O'<<16 | 'T'<<24
)

// TypeTag returns the tag for a chunk type. Types shorter than four
// characters are left-padded with NUL bytes; longer ones are truncated.
func TypeTag(s string) Tag {
	if len(s) > 4 {
		s = s[:4]
	}
	var b [4]byte
	copy(b[4-len(s):], s)
	return Tag(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
}

// Bytes returns the four bytes of t in file order.
func (t Tag) Bytes() [4]byte {
	return [4]byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)}
}

// String returns the tag text with NUL padding removed.
func (t Tag) String() string {
	b := t.Bytes()
	return strings.Trim(string(b[:]), "\x00")
}

// Query selects chunks by kind, type and version. Each of the three fields is
// compared under a mask; a zero mask matches anything.
type Query struct {
	kindMask, kind       uint32
	typeMask, typ        uint32
	versionMask, version uint32
}

// ParseQuery compiles a query string of the form "(KIND)?TYPE(vVERSION)?".
//
// If the text before the first space is longer than four characters its
// first four characters are the kind. The type is the next one to four
// characters. A "v" after optional spaces introduces a decimal version.
// An empty query matches every chunk.
func ParseQuery(s string) Query {
	var q Query
	if s == "" {
		return q
	}
	head := s
	if i := strings.IndexByte(s, ' '); i >= 0 {
		head = s[:i]
	}
	if len(head) > 4 {
		q.kindMask = ^uint32(0)
		q.kind = uint32(TypeTag(head[:4]))
		s = s[4:]
		head = head[4:]
	}

	typeLen := min(len(head), 4)
	var mask [4]byte
	for i := 4 - typeLen; i < 4; i++ {
		mask[i] = 0xFF
	}
	q.typeMask = uint32(mask[0]) | uint32(mask[1])<<8 | uint32(mask[2])<<16 | uint32(mask[3])<<24
	q.typ = uint32(TypeTag(head[:typeLen]))
	s = strings.TrimLeft(s[typeLen:], " ")

	if strings.HasPrefix(s, "v") {
		q.versionMask = ^uint32(0)
		q.version = uint32(atoi(s[1:])) //nolint:gosec // matches C atoi wraparound
	}
	return q
}

// Match reports whether c satisfies the query.
func (q Query) Match(c *Chunk) bool {
	return ((uint32(c.kind)&q.kindMask)^q.kind)|
		((uint32(c.typ)&q.typeMask)^q.typ)|
		((c.version&q.versionMask)^q.version) == 0
}

// atoi parses a leading decimal integer the way C's atoi does: leading
// spaces and a sign are accepted and parsing stops at the first non-digit.
func atoi(s string) int64 {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
