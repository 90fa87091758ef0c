package sga

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/essence/lookup2"
)

// handLayout pins the on-disk offsets of one archive version. The values
// are written out by hand so the reader is checked against the file format
// rather than against Build.
type handLayout struct {
	version     Version
	diskVersion uint32
	headerSize  int
	nameAt      int
	dhSizeAt    int
	dataAt      int
	platformAt  int // 0: none
	dhPtrAt     int // 0: data header follows the file header
	wide        bool
	epWide      bool
	folderWide  bool
	epSize      int
	fileSize    int
}

var handLayouts = []handLayout{
	{version: Version2, diskVersion: 2, headerSize: 180, nameAt: 28, dhSizeAt: 172, dataAt: 176,
		folderWide: true, epSize: 140, fileSize: 20},
	{version: Version4, diskVersion: 4, headerSize: 184, nameAt: 28, dhSizeAt: 172, dataAt: 176, platformAt: 180,
		folderWide: true, epSize: 140, fileSize: 22},
	{version: Version45, diskVersion: 5, headerSize: 184, nameAt: 28, dhSizeAt: 172, dataAt: 176, platformAt: 180,
		wide: true, folderWide: true, epSize: 144, fileSize: 22},
	{version: Version5, diskVersion: 5, headerSize: 188, nameAt: 28, dhSizeAt: 172, dataAt: 176, platformAt: 184, dhPtrAt: 180,
		epSize: 138, fileSize: 22},
	{version: Version6, diskVersion: 6, headerSize: 152, nameAt: 12, dhSizeAt: 140, dataAt: 144, platformAt: 148,
		wide: true, epWide: true, folderWide: true, epSize: 148, fileSize: 26},
}

var (
	handContent = []byte("hello")
	handModTime = uint32(1_700_000_000)
)

type byteWriter []byte

func (w *byteWriter) at(off, n int) []byte {
	if need := off + n; need > len(*w) {
		*w = append(*w, make([]byte, need-len(*w))...)
	}
	return (*w)[off : off+n]
}

func (w *byteWriter) u16(off int, v uint16) { le.PutUint16(w.at(off, 2), v) }
func (w *byteWriter) u32(off int, v uint32) { le.PutUint32(w.at(off, 4), v) }
func (w *byteWriter) raw(off int, b []byte) { copy(w.at(off, len(b)), b) }

// index writes a table count or record index, returning the offset after it.
func (w *byteWriter) index(off int, v uint32, wide bool) int {
	if wide {
		w.u32(off, v)
		return off + 4
	}
	w.u16(off, uint16(v))
	return off + 2
}

// encode lays out an archive named "hand" with one entry point, a root
// directory and the stored file hello.txt.
func (h handLayout) encode() []byte {
	var w byteWriter
	w.raw(0, []byte("_ARCHIVE"))
	w.u32(8, h.diskVersion)
	for i, r := range "hand" {
		w.u16(h.nameAt+2*i, uint16(r))
	}
	if h.platformAt != 0 {
		w.u32(h.platformAt, 1)
	}
	dh := h.headerSize
	if h.dhPtrAt != 0 {
		w.u32(h.dhPtrAt, uint32(dh))
	}

	dirSize := 4 + 4*2
	dhLen := 24
	if h.wide {
		dirSize = 4 + 4*4
		dhLen = 32
	}
	strs := []byte("\x00hello.txt\x00")
	ep := dhLen
	dir := ep + h.epSize
	file := dir + dirSize
	str := file + h.fileSize
	dhSize := str + len(strs)

	// Table of tables: entry points, directories, files, strings.
	off := dh
	for _, t := range [][2]int{{ep, 1}, {dir, 1}, {file, 1}, {str, 2}} {
		w.u32(off, uint32(t[0]))
		off = w.index(off+4, uint32(t[1]), h.wide)
	}

	w.raw(dh+ep, []byte("data"))
	w.raw(dh+ep+64, []byte("Data"))
	off = dh + ep + 128
	for _, v := range []uint32{0, 1, 0, 1} {
		off = w.index(off, v, h.epWide)
	}
	w.index(off, 0, h.folderWide)

	off = w.index(dh+dir+4, 1, h.wide)
	off = w.index(off, 1, h.wide)
	off = w.index(off, 0, h.wide)
	w.index(off, 1, h.wide)

	f := dh + file
	w.u32(f, 1)
	if h.version == Version2 {
		w.u32(f+4, 0) // flags
		w.u32(f+8, 0)
		w.u32(f+12, uint32(len(handContent)))
		w.u32(f+16, uint32(len(handContent)))
	} else {
		w.u32(f+4, 0)
		w.u32(f+8, uint32(len(handContent)))
		w.u32(f+12, uint32(len(handContent)))
		w.u32(f+16, handModTime)
		w.u16(f+20, 0)
	}
	if h.fileSize == 26 {
		w.u32(f+22, lookup2.Hash(handContent, 0))
	}
	w.raw(dh+str, strs)

	data := dh + dhSize
	w.u32(h.dhSizeAt, uint32(dhSize))
	w.u32(h.dataAt, uint32(data))
	w.raw(data, handContent)
	return w
}

func TestReadHandEncodedArchives(t *testing.T) {
	t.Parallel()

	for _, h := range handLayouts {
		t.Run(h.version.String(), func(t *testing.T) {
			t.Parallel()

			a := openBytes(t, h.encode(), WithVerifyHashes(true))
			assert.Equal(t, h.version, a.Version())
			assert.Equal(t, "hand", a.Name())
			assert.Equal(t, []EntryPoint{{Name: "data", Alias: "Data", LastDir: 1, LastFile: 1}}, a.EntryPoints())

			files, err := a.Files("")
			require.NoError(t, err)
			assert.Equal(t, []string{"hello.txt"}, files)
			dirs, err := a.Dirs("")
			require.NoError(t, err)
			assert.Empty(t, dirs)

			assert.Equal(t, handContent, readAll(t, a, "hello.txt"))

			fi, err := a.Stat("hello.txt")
			require.NoError(t, err)
			assert.Equal(t, uint64(len(handContent)), fi.Size)
			assert.False(t, fi.Compressed())
			if h.version == Version2 {
				assert.True(t, fi.ModTime.IsZero())
			} else {
				assert.Equal(t, time.Unix(int64(handModTime), 0).UTC(), fi.ModTime)
			}
			assert.Equal(t, h.version == Version6, fi.HasHash)
		})
	}
}

func TestVersion5PointerDecidesLayout(t *testing.T) {
	t.Parallel()

	// A version 5 header whose word at offset 180 is a small platform id is
	// the wide layout; a data header pointer selects the narrow one.
	b := handLayouts[2].encode()
	require.Equal(t, uint32(1), le.Uint32(b[180:]))
	assert.Equal(t, Version45, openBytes(t, b).Version())

	b = handLayouts[3].encode()
	require.Equal(t, uint32(188), le.Uint32(b[180:]))
	assert.Equal(t, Version5, openBytes(t, b).Version())
}
