package chunky

import (
	"bytes"
	"encoding/binary"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/essence/internal/testutil"
	"github.com/meigma/essence/mappable"
)

func openBytes(tb testing.TB, data []byte) *File {
	tb.Helper()
	f, err := Open(mappable.NewMemory(data))
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = f.Close() })
	return f
}

func sampleTree() []testutil.Chunk {
	return []testutil.Chunk{{
		Kind: "FOLD", Type: "MODL", Version: 1, Name: "marine",
		Children: []testutil.Chunk{
			{Kind: "DATA", Type: "INFO", Version: 1, Data: testutil.Fields("rgm_default")},
			{Kind: "FOLD", Type: "MESH", Version: 2, Children: []testutil.Chunk{
				{Kind: "DATA", Type: "DATA", Version: 8, Data: []byte{1, 2, 3}},
			}},
			{Kind: "FOLD", Type: "MESH", Version: 3, Name: "body", Children: []testutil.Chunk{
				{Kind: "FOLD", Type: "MRGM", Version: 1, Children: []testutil.Chunk{
					{Kind: "DATA", Type: "DATA", Version: 8, Data: []byte("payload")},
				}},
			}},
			{Kind: "DATA", Type: "RGM", Version: 1, Data: []byte{9}},
		},
	}}
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	mk := func(kind, typ string, version uint32) *Chunk {
		return &Chunk{kind: TypeTag(kind), typ: TypeTag(typ), version: version}
	}

	tests := []struct {
		query string
		chunk *Chunk
		want  bool
	}{
		{"FOLDMESH v3", mk("FOLD", "MESH", 3), true},
		{"FOLDMESH v3", mk("FOLD", "MESH", 2), false},
		{"FOLDMESH v3", mk("DATA", "MESH", 3), false},
		{"FOLDMESH", mk("FOLD", "MESH", 7), true},
		{"MESH", mk("DATA", "MESH", 1), true},
		{"MESH v2", mk("FOLD", "MESH", 2), true},
		{"FOLDDXTCv3", mk("FOLD", "DXTC", 3), true},
		{"FOLDDXTCv3", mk("FOLD", "DXTC", 2), false},
		{"DATARGM", mk("DATA", "RGM", 1), true},
		{"RGM", mk("DATA", "XRGM", 1), true},
		{"RGM", mk("DATA", "RGMX", 1), false},
		{"", mk("DATA", "ANY", 5), true},
		{"DATATFMT   v1", mk("DATA", "TFMT", 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseQuery(tt.query).Match(tt.chunk), "%q vs %s", tt.query, tt.chunk)
		})
	}
}

func TestTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindFold, TypeTag("FOLD"))
	assert.Equal(t, "DATA", KindData.String())
	assert.Equal(t, "RGM", TypeTag("RGM").String())
	assert.Equal(t, [4]byte{0, 'R', 'G', 'M'}, TypeTag("RGM").Bytes())
	assert.Equal(t, TypeTag("MODL"), TypeTag("MODLX"))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	for _, version := range []uint32{1, 3} {
		f := openBytes(t, testutil.EncodeChunky(version, sampleTree()...))
		assert.Equal(t, version, f.FormatVersion())
		assert.Equal(t, KindRoot, f.Kind())
		assert.Equal(t, version, f.Version())
		assert.Equal(t, uint32(1), f.Platform())
		if version >= 3 {
			assert.Equal(t, ChunkHeaderSize, f.ChunkHeaderSize())
		} else {
			assert.Equal(t, LegacyChunkHeaderSize, f.ChunkHeaderSize())
		}

		modl := f.FindFirst("FOLDMODL")
		require.NotNil(t, modl)
		assert.Equal(t, "marine", modl.Name())

		info := modl.FindFirst("DATAINFO")
		require.NotNil(t, info)
		r := info.Reader()
		assert.Equal(t, "rgm_default", r.String())
		require.NoError(t, r.Err())

		mesh := modl.FindFirst("FOLDMESH v3")
		require.NotNil(t, mesh)
		assert.Equal(t, "body", mesh.Name())
		data := mesh.FindFirst("FOLDMRGM").FindFirst("DATADATA v8")
		require.NotNil(t, data)
		assert.Equal(t, "payload", string(data.Contents()))

		assert.Len(t, modl.FindAll("MESH"), 2)
		assert.Len(t, slices.Collect(modl.Children()), 4)
		assert.NotNil(t, modl.FindFirst("DATARGM"))
	}
}

func TestOpen_Invalid(t *testing.T) {
	t.Parallel()

	valid := testutil.EncodeChunky(3)

	_, err := Open(mappable.NewMemory(valid[:20]))
	require.ErrorIs(t, err, ErrNotChunky)

	bad := slices.Clone(valid)
	bad[0] = 'X'
	_, err = Open(mappable.NewMemory(bad))
	require.ErrorIs(t, err, ErrNotChunky)

	beyond := slices.Clone(valid)
	binary.LittleEndian.PutUint32(beyond[24:28], 1000)
	_, err = Open(mappable.NewMemory(beyond))
	require.ErrorIs(t, err, ErrNotChunky)

	f := openBytes(t, valid)
	assert.Nil(t, f.FindFirst("FOLDMODL"))
}

func TestChunk_NilChaining(t *testing.T) {
	t.Parallel()

	var c *Chunk
	assert.Nil(t, c.FindFirst("FOLDMODL"))
	assert.Nil(t, c.FindFirst("FOLDMODL").FindFirst("DATAINFO"))
	assert.Empty(t, c.FindAll("DATA"))
	assert.Empty(t, slices.Collect(c.Children()))

	_, err := c.Require("DATAINFO")
	require.ErrorIs(t, err, ErrMissingChunk)
	r := c.Reader()
	assert.Zero(t, r.Uint32())
	require.ErrorIs(t, r.Err(), ErrMissingChunk)
}

func TestChunk_DataHasNoChildren(t *testing.T) {
	t.Parallel()

	inner := testutil.EncodeChunky(3, testutil.Chunk{Kind: "DATA", Type: "INFO", Version: 1})
	payload := inner[36:]
	f := openBytes(t, testutil.EncodeChunky(3, testutil.Chunk{
		Kind: "DATA", Type: "WRAP", Version: 1, Data: payload,
	}))

	wrap := f.FindFirst("DATAWRAP")
	require.NotNil(t, wrap)
	assert.Nil(t, wrap.FindFirst("DATAINFO"))
	assert.Empty(t, slices.Collect(wrap.Children()))
}

func TestChunk_ContainmentStopsIteration(t *testing.T) {
	t.Parallel()

	data := testutil.EncodeChunky(3, testutil.Chunk{
		Kind: "FOLD", Type: "PRNT", Version: 1,
		Children: []testutil.Chunk{
			{Kind: "DATA", Type: "ONE", Version: 1, Data: []byte{1}},
			{Kind: "FOLD", Type: "TWO", Version: 1, Children: []testutil.Chunk{
				{Kind: "DATA", Type: "SUB", Version: 1, Data: []byte{2}},
			}},
			{Kind: "DATA", Type: "TRE", Version: 1, Data: []byte{3}},
		},
	})
	// The parent header follows the 36-byte file header; its contents start
	// with ONE (a 28-byte header and one byte) and then TWO.
	const (
		parent = 36
		second = parent + 28 + 28 + 1
	)
	le := binary.LittleEndian

	tests := []struct {
		name  string
		patch func(b []byte)
	}{
		{"data child overruns parent", func(b []byte) {
			le.PutUint32(b[second+12:], 100)
			copy(b[second:], "DATA")
		}},
		{"folder child overruns parent", func(b []byte) {
			le.PutUint32(b[second+12:], 100)
		}},
		{"name overruns parent", func(b []byte) {
			le.PutUint32(b[second+16:], 100)
		}},
		{"header straddles parent end", func(b []byte) {
			le.PutUint32(b[parent+12:], 29+10)
		}},
		{"extended header fields cut off", func(b []byte) {
			le.PutUint32(b[parent+12:], 29+20)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := bytes.Clone(data)
			tc.patch(b)
			f := openBytes(t, b)
			prnt := f.FindFirst("FOLDPRNT")
			require.NotNil(t, prnt)
			children := slices.Collect(prnt.Children())
			require.Len(t, children, 1)
			assert.Equal(t, "ONE", children[0].Type().String())
			assert.Nil(t, prnt.FindFirst("TRE"))
		})
	}

	f := openBytes(t, data)
	assert.Len(t, slices.Collect(f.FindFirst("FOLDPRNT").Children()), 3)
}

func TestReader(t *testing.T) {
	t.Parallel()

	payload := testutil.Fields(uint8(7), uint16(0x1234), uint32(0xdeadbeef), int32(-5),
		float32(1.5), "name\x00", []byte{0xAA, 0xBB}, [3]float32{1, 2, 3})
	r := NewReader(payload)

	assert.Equal(t, uint8(7), r.Uint8())
	assert.Equal(t, uint16(0x1234), r.Uint16())
	assert.Equal(t, uint32(0xdeadbeef), r.Uint32())
	assert.Equal(t, int32(-5), r.Int32())
	assert.InDelta(t, 1.5, r.Float32(), 0)
	assert.Equal(t, "name", r.String())
	assert.Equal(t, 1+2+4+4+4+4+5, r.Tell())
	r.Skip(1)
	assert.Equal(t, []byte{0xBB}, r.Bytes(1))

	var v [3]float32
	require.NoError(t, r.Decode(&v))
	assert.Equal(t, [3]float32{1, 2, 3}, v)
	assert.Zero(t, r.Remaining())
	require.NoError(t, r.Err())

	assert.Zero(t, r.Uint32())
	require.ErrorIs(t, r.Err(), ErrUnexpectedEnd)
	assert.Empty(t, r.String())
	require.ErrorIs(t, r.Decode(&v), ErrUnexpectedEnd)
}

func TestReader_StringTooLong(t *testing.T) {
	t.Parallel()

	r := NewReader(testutil.Fields(uint32(10), []byte("abc")))
	assert.Empty(t, r.String())
	require.ErrorIs(t, r.Err(), ErrUnexpectedEnd)
}

func writeSample(t *testing.T, w *Writer) {
	t.Helper()
	require.NoError(t, w.BeginChunk(KindFold, "MODL", 1, "marine"))
	require.NoError(t, w.BeginChunk(KindData, "INFO", 1, ""))
	require.NoError(t, w.String("rgm_default"))
	require.NoError(t, w.EndChunk())
	require.NoError(t, w.BeginChunk(KindFold, "MESH", 2, ""))
	require.NoError(t, w.BeginChunk(KindData, "DATA", 8, ""))
	require.NoError(t, w.Payload([]byte{1, 2, 3}))
	require.NoError(t, w.EndChunk())
	require.NoError(t, w.EndChunk())
	require.NoError(t, w.BeginChunk(KindFold, "MESH", 3, "body"))
	require.NoError(t, w.BeginChunk(KindFold, "MRGM", 1, ""))
	require.NoError(t, w.BeginChunk(KindData, "DATA", 8, ""))
	require.NoError(t, w.Payload([]byte("payload")))
	require.NoError(t, w.EndChunk())
	require.NoError(t, w.EndChunk())
	require.NoError(t, w.EndChunk())
	require.NoError(t, w.BeginChunk(KindData, "RGM", 1, ""))
	require.NoError(t, w.Payload([]byte{9}))
	assert.Equal(t, 2, w.Depth())
}

func TestWriter_MatchesEncoding(t *testing.T) {
	t.Parallel()

	for _, version := range []uint32{1, 3} {
		buf := testutil.NewBuffer()
		w, err := NewWriter(buf, WithFormatVersion(version))
		require.NoError(t, err)
		writeSample(t, w)
		require.NoError(t, w.Close())
		assert.Zero(t, w.Depth())

		assert.Equal(t, testutil.EncodeChunky(version, sampleTree()...), buf.Bytes(), "version %d", version)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	buf := testutil.NewBuffer()
	w, err := NewWriter(buf)
	require.NoError(t, err)
	require.NoError(t, w.BeginChunk(KindFold, "A", 1, ""))
	require.NoError(t, w.BeginChunk(KindFold, "B", 2, "b"))
	require.NoError(t, w.BeginChunk(KindFold, "C", 3, ""))
	require.NoError(t, w.BeginChunk(KindData, "D", 4, "leaf"))
	require.NoError(t, w.Uint32(42))
	require.NoError(t, w.Float32(0.25))
	require.NoError(t, w.Close())

	f := openBytes(t, buf.Bytes())
	d := f.FindFirst("FOLDA v1").FindFirst("FOLDB v2").FindFirst("FOLDC v3").FindFirst("DATAD v4")
	require.NotNil(t, d)
	assert.Equal(t, "leaf", d.Name())
	r := d.Reader()
	assert.Equal(t, uint32(42), r.Uint32())
	assert.InDelta(t, 0.25, r.Float32(), 0)
	require.NoError(t, r.Err())
	assert.Equal(t, 8, d.Size())
}

func TestWriter_EndWithoutBegin(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(testutil.NewBuffer())
	require.NoError(t, err)
	require.ErrorIs(t, w.EndChunk(), ErrNoOpenChunk)
	require.NoError(t, w.Close())
}
