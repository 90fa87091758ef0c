package sga

import (
	"encoding/binary"
	"strconv"
)

// Version identifies an archive layout.
type Version uint32

// Supported archive layouts. Version45 is the variant of version 5 used by
// early Company of Heroes 2 builds; on disk it declares version 5.
const (
	Version2  Version = 2
	Version4  Version = 4
	Version5  Version = 5
	Version45 Version = 45
	Version6  Version = 6
)

// String returns a human-readable version label.
func (v Version) String() string {
	switch v {
	case Version45:
		return "5 (CoH2 alpha)"
	case Version5:
		return "5 (DoW2)"
	default:
		return strconv.FormatUint(uint64(v), 10)
	}
}

const (
	magic           = "_ARCHIVE"
	archiveNameSize = 128

	noField = -1

	narrowDataHeaderSize = 24
	wideDataHeaderSize   = 32
)

var le = binary.LittleEndian

// layout describes how one archive version arranges its headers and
// records. Field offsets are relative to the start of the file header.
type layout struct {
	version Version

	headerSize int

	nameOffset           int
	dataHeaderSizeOffset int
	dataOffsetOffset     int
	platformOffset       int // noField: platform is implicitly 1
	dataHeaderPtrOffset  int // noField: data header follows the file header

	// wide layouts use u32 counts and directory indices.
	wide bool

	fileRecordSize  int
	entryPointSize  int
	entryPointWide  bool
	entryFolderWide bool

	hasModTime bool
	hasHash    bool
}

var (
	layoutV2 = &layout{
		version:              Version2,
		headerSize:           180,
		nameOffset:           28,
		dataHeaderSizeOffset: 172,
		dataOffsetOffset:     176,
		platformOffset:       noField,
		dataHeaderPtrOffset:  noField,
		fileRecordSize:       20,
		entryPointSize:       140,
		entryFolderWide:      true,
	}
	layoutV4 = &layout{
		version:              Version4,
		headerSize:           184,
		nameOffset:           28,
		dataHeaderSizeOffset: 172,
		dataOffsetOffset:     176,
		platformOffset:       180,
		dataHeaderPtrOffset:  noField,
		fileRecordSize:       22,
		entryPointSize:       140,
		entryFolderWide:      true,
		hasModTime:           true,
	}
	layoutV45 = &layout{
		version:              Version45,
		headerSize:           184,
		nameOffset:           28,
		dataHeaderSizeOffset: 172,
		dataOffsetOffset:     176,
		platformOffset:       180,
		dataHeaderPtrOffset:  noField,
		wide:                 true,
		fileRecordSize:       22,
		entryPointSize:       144,
		entryFolderWide:      true,
		hasModTime:           true,
	}
	layoutV5 = &layout{
		version:              Version5,
		headerSize:           188,
		nameOffset:           28,
		dataHeaderSizeOffset: 172,
		dataOffsetOffset:     176,
		platformOffset:       184,
		dataHeaderPtrOffset:  180,
		fileRecordSize:       22,
		entryPointSize:       138,
		hasModTime:           true,
	}
	layoutV6 = &layout{
		version:              Version6,
		headerSize:           152,
		nameOffset:           12,
		dataHeaderSizeOffset: 140,
		dataOffsetOffset:     144,
		platformOffset:       148,
		dataHeaderPtrOffset:  noField,
		wide:                 true,
		fileRecordSize:       26,
		entryPointSize:       148,
		entryPointWide:       true,
		entryFolderWide:      true,
		hasModTime:           true,
		hasHash:              true,
	}
)

// v45PointerLimit separates the two version 5 layouts: the u32 at offset
// 180 is a platform id in the CoH2 alpha layout and a data header offset,
// always past the file header, in the DoW2 layout.
const v45PointerLimit = 8

// detectLayout picks the layout for a header. The header must hold at least
// 12 bytes, and 184 bytes when it declares version 5.
func detectLayout(header []byte) (*layout, bool) {
	switch le.Uint32(header[8:12]) {
	case 2:
		return layoutV2, true
	case 4:
		return layoutV4, true
	case 5:
		if le.Uint32(header[180:184]) < v45PointerLimit {
			return layoutV45, true
		}
		return layoutV5, true
	case 6:
		return layoutV6, true
	default:
		return nil, false
	}
}

func layoutFor(v Version) (*layout, bool) {
	switch v {
	case Version2:
		return layoutV2, true
	case Version4:
		return layoutV4, true
	case Version45:
		return layoutV45, true
	case Version5:
		return layoutV5, true
	case Version6:
		return layoutV6, true
	default:
		return nil, false
	}
}

// diskVersion is the version number written in the file header.
func (l *layout) diskVersion() uint32 {
	if l.version == Version45 {
		return 5
	}
	return uint32(l.version)
}

func (l *layout) platform(header []byte) uint32 {
	if l.platformOffset == noField {
		return 1
	}
	return le.Uint32(header[l.platformOffset:])
}

func (l *layout) dataHeaderOffset(header []byte) uint64 {
	if l.dataHeaderPtrOffset == noField {
		return uint64(l.headerSize)
	}
	return uint64(le.Uint32(header[l.dataHeaderPtrOffset:]))
}

func (l *layout) dataHeaderSize() int {
	if l.wide {
		return wideDataHeaderSize
	}
	return narrowDataHeaderSize
}

func (l *layout) dirRecordSize() int {
	if l.wide {
		return 4 + 4*4
	}
	return 4 + 4*2
}

// table locates one record table inside the data header.
type table struct {
	offset uint32
	count  uint32
}

type dataHeader struct {
	entryPoints table
	dirs        table
	files       table
	strings     table
}

func (l *layout) decodeDataHeader(b []byte) dataHeader {
	var t [4]table
	for i := range t {
		if l.wide {
			t[i] = table{offset: le.Uint32(b[i*8:]), count: le.Uint32(b[i*8+4:])}
		} else {
			t[i] = table{offset: le.Uint32(b[i*6:]), count: uint32(le.Uint16(b[i*6+4:]))}
		}
	}
	return dataHeader{entryPoints: t[0], dirs: t[1], files: t[2], strings: t[3]}
}

func (l *layout) appendDataHeader(dst []byte, h dataHeader) []byte {
	for _, t := range []table{h.entryPoints, h.dirs, h.files, h.strings} {
		dst = le.AppendUint32(dst, t.offset)
		if l.wide {
			dst = le.AppendUint32(dst, t.count)
		} else {
			dst = le.AppendUint16(dst, uint16(t.count)) //nolint:gosec // builder checks narrow limits
		}
	}
	return dst
}

// span is a half-open range of directory or file indices.
type span struct {
	first, last uint32
}

func (s span) len() int {
	if s.last < s.first {
		return 0
	}
	return int(s.last - s.first)
}

type dirRecord struct {
	nameOffset uint32
	dirs       span
	files      span
}

func readIndex(b []byte, wide bool) (uint32, []byte) {
	if wide {
		return le.Uint32(b), b[4:]
	}
	return uint32(le.Uint16(b)), b[2:]
}

func appendIndex(dst []byte, v uint32, wide bool) []byte {
	if wide {
		return le.AppendUint32(dst, v)
	}
	return le.AppendUint16(dst, uint16(v)) //nolint:gosec // builder checks narrow limits
}

func (l *layout) decodeDir(b []byte) dirRecord {
	var r dirRecord
	r.nameOffset = le.Uint32(b)
	b = b[4:]
	r.dirs.first, b = readIndex(b, l.wide)
	r.dirs.last, b = readIndex(b, l.wide)
	r.files.first, b = readIndex(b, l.wide)
	r.files.last, _ = readIndex(b, l.wide)
	return r
}

func (l *layout) appendDir(dst []byte, r dirRecord) []byte {
	dst = le.AppendUint32(dst, r.nameOffset)
	dst = appendIndex(dst, r.dirs.first, l.wide)
	dst = appendIndex(dst, r.dirs.last, l.wide)
	dst = appendIndex(dst, r.files.first, l.wide)
	return appendIndex(dst, r.files.last, l.wide)
}

type fileRecord struct {
	nameOffset uint32
	dataOffset uint32
	compressed uint32
	length     uint32
	modTime    uint32
	flags      uint32
	hash       uint32
}

func (l *layout) decodeFile(b []byte) fileRecord {
	if l.version == Version2 {
		return fileRecord{
			nameOffset: le.Uint32(b[0:]),
			flags:      le.Uint32(b[4:]),
			dataOffset: le.Uint32(b[8:]),
			compressed: le.Uint32(b[12:]),
			length:     le.Uint32(b[16:]),
		}
	}
	r := fileRecord{
		nameOffset: le.Uint32(b[0:]),
		dataOffset: le.Uint32(b[4:]),
		compressed: le.Uint32(b[8:]),
		length:     le.Uint32(b[12:]),
		modTime:    le.Uint32(b[16:]),
		flags:      uint32(le.Uint16(b[20:])),
	}
	if l.hasHash {
		r.hash = le.Uint32(b[22:])
	}
	return r
}

func (l *layout) appendFile(dst []byte, r fileRecord) []byte {
	if l.version == Version2 {
		dst = le.AppendUint32(dst, r.nameOffset)
		dst = le.AppendUint32(dst, r.flags)
		dst = le.AppendUint32(dst, r.dataOffset)
		dst = le.AppendUint32(dst, r.compressed)
		return le.AppendUint32(dst, r.length)
	}
	dst = le.AppendUint32(dst, r.nameOffset)
	dst = le.AppendUint32(dst, r.dataOffset)
	dst = le.AppendUint32(dst, r.compressed)
	dst = le.AppendUint32(dst, r.length)
	dst = le.AppendUint32(dst, r.modTime)
	dst = le.AppendUint16(dst, uint16(r.flags)) //nolint:gosec // u16 on disk
	if l.hasHash {
		dst = le.AppendUint32(dst, r.hash)
	}
	return dst
}

const entryPointNameSize = 64

func (l *layout) decodeEntryPoint(b []byte) EntryPoint {
	e := EntryPoint{
		Name:  cString(b[:entryPointNameSize]),
		Alias: cString(b[entryPointNameSize : 2*entryPointNameSize]),
	}
	b = b[2*entryPointNameSize:]
	e.FirstDir, b = readIndex(b, l.entryPointWide)
	e.LastDir, b = readIndex(b, l.entryPointWide)
	e.FirstFile, b = readIndex(b, l.entryPointWide)
	e.LastFile, b = readIndex(b, l.entryPointWide)
	e.FolderOffset, _ = readIndex(b, l.entryFolderWide)
	return e
}

func (l *layout) appendEntryPoint(dst []byte, e EntryPoint) []byte {
	var name [2 * entryPointNameSize]byte
	copy(name[:entryPointNameSize-1], e.Name)
	copy(name[entryPointNameSize:2*entryPointNameSize-1], e.Alias)
	dst = append(dst, name[:]...)
	dst = appendIndex(dst, e.FirstDir, l.entryPointWide)
	dst = appendIndex(dst, e.LastDir, l.entryPointWide)
	dst = appendIndex(dst, e.FirstFile, l.entryPointWide)
	dst = appendIndex(dst, e.LastFile, l.entryPointWide)
	dst = appendIndex(dst, e.FolderOffset, l.entryFolderWide)
	// Version 4.5 records carry an extra reserved word.
	if pad := l.entryPointSize - l.entryPointFieldSize(); pad > 0 {
		dst = append(dst, make([]byte, pad)...)
	}
	return dst
}

func (l *layout) entryPointFieldSize() int {
	idx, folder := 2, 2
	if l.entryPointWide {
		idx = 4
	}
	if l.entryFolderWide {
		folder = 4
	}
	return 2*entryPointNameSize + 4*idx + folder
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
