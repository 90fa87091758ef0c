package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meigma/essence/internal/testutil"
	"github.com/meigma/essence/lookup2"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).root().Execute(context.Background(), &stderr, args)
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err)
	return out
}

// packFixture builds an archive from a small tree and returns its path.
func packFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "readme.txt", []byte("hello"))
	testutil.WriteFile(t, dir, "Data/Unit.txt", []byte("unit"))
	out := filepath.Join(t.TempDir(), "test.sga")

	stdout := mustRun(t, "pack", "--sga-version", "5", "--name", "test", dir, out)
	assert.Equal(t, fmt.Sprintf("packed 2 files into %s\n", out), stdout)
	return out
}

// textureFixture is a 2x1 texture with one stored level.
func textureFixture() []byte {
	level := testutil.Fields(uint32(0), uint32(2), uint32(1), uint32(2), bytes.Repeat([]byte{7}, 8))
	return testutil.EncodeChunky(3, testutil.Chunk{Kind: "FOLD", Type: "TSET", Version: 1, Children: []testutil.Chunk{
		{Kind: "FOLD", Type: "TXTR", Version: 1, Name: "tex", Children: []testutil.Chunk{
			{Kind: "FOLD", Type: "DXTC", Version: 3, Children: []testutil.Chunk{
				{Kind: "DATA", Type: "TFMT", Version: 1, Data: testutil.Fields(uint32(2), uint32(1), uint32(0), uint32(0), uint32(22))},
				{Kind: "DATA", Type: "TMAN", Version: 1, Data: testutil.Fields(uint32(1), uint32(len(level)), uint32(len(level)))},
				{Kind: "DATA", Type: "TDAT", Version: 1, Data: level},
			}},
		}},
	}})
}

func TestHash(t *testing.T) {
	t.Parallel()

	out := mustRun(t, "hash", `data\art`, "x")
	want := fmt.Sprintf("%08x  data\\art\n%08x  x\n", lookup2.HashString(`data\art`, 0), lookup2.HashString("x", 0))
	assert.Equal(t, want, out)

	out = mustRun(t, "hash", "--seed", "7", "x")
	assert.Equal(t, fmt.Sprintf("%08x  x\n", lookup2.HashString("x", 7)), out)

	path := testutil.WriteFile(t, t.TempDir(), "blob.bin", []byte("contents"))
	out = mustRun(t, "hash", "-f", path)
	assert.Equal(t, fmt.Sprintf("%08x  %s\n", lookup2.Hash([]byte("contents"), 0), path), out)
}

func TestListAndCat(t *testing.T) {
	t.Parallel()

	archive := packFixture(t)
	assert.Equal(t, "data\\\nreadme.txt\n", mustRun(t, "ls", archive))
	assert.Equal(t, "readme.txt\ndata\\unit.txt\n", mustRun(t, "ls", "-r", archive))
	assert.Equal(t, "unit.txt\n", mustRun(t, "ls", archive, "DATA"))
	assert.Contains(t, mustRun(t, "ls", "-l", archive), fmt.Sprintf("%12d  readme.txt  (5 stored)\n", 5))

	assert.Equal(t, "hellounit", mustRun(t, "cat", archive, "readme.txt", `data\unit.txt`))

	cacheDir := filepath.Join(t.TempDir(), "cache")
	assert.Equal(t, "unit", mustRun(t, "cat", "--cache-dir", cacheDir, archive, `data\unit.txt`))
	assert.DirExists(t, cacheDir)

	_, err := run(t, "cat", archive, "missing.txt")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	archive := packFixture(t)
	dest := filepath.Join(t.TempDir(), "out")
	assert.Equal(t, "extracted 2 files (9 bytes), skipped 0\n", mustRun(t, "extract", "-j", "2", archive, dest))

	data, err := os.ReadFile(filepath.Join(dest, "data", "unit.txt"))
	require.NoError(t, err)
	assert.Equal(t, "unit", string(data))

	assert.Equal(t, "extracted 0 files (0 bytes), skipped 1\n", mustRun(t, "extract", archive, dest, "data"))
	assert.Equal(t, "extracted 1 files (4 bytes), skipped 0\n", mustRun(t, "extract", "--overwrite", archive, dest, "data"))
}

func TestInfo(t *testing.T) {
	t.Parallel()

	archive := packFixture(t)
	var src sourceInfo
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "info", archive)), &src))
	assert.Equal(t, "archive", src.Kind)
	require.NotNil(t, src.Archive)
	assert.Equal(t, "test", src.Archive.Name)
	assert.Equal(t, uint32(5), src.Archive.Version)
	assert.Equal(t, 2, src.Archive.Files)
	require.Len(t, src.Archive.EntryPoints, 1)

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "Art/Tex.rgt", textureFixture())
	testutil.WriteFile(t, dir, "notes.txt", []byte("notes"))

	var tex textureInfo
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "info", dir, `art\tex.rgt`)), &tex))
	assert.Equal(t, textureInfo{
		Width:  2,
		Height: 1,
		Format: "BC1_UNORM",
		Mips:   []mipInfo{{Level: 0, Width: 2, Height: 1, Pitch: 8, Bytes: 8}},
	}, tex)

	var file fileInfo
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "info", dir, "NOTES.TXT")), &file))
	assert.Equal(t, fileInfo{Path: "notes.txt", Size: 5}, file)

	var d sourceInfo
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "info", dir)), &d))
	assert.Equal(t, "directory", d.Kind)
}

func TestChunks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "tex.rgt", textureFixture())

	out := mustRun(t, "chunks", path)
	assert.Contains(t, out, "chunky v3")
	assert.Contains(t, out, "  FOLDTSET v1 (")
	assert.Contains(t, out, "    FOLDTXTR v1 \"tex\" (")
	assert.Contains(t, out, "        DATATFMT v1 (20 bytes)")

	var tree chunkTree
	require.NoError(t, yaml.Unmarshal([]byte(mustRun(t, "chunks", "--yaml", dir, "TEX.RGT")), &tree))
	assert.Equal(t, uint32(3), tree.Version)
	require.Len(t, tree.Chunks, 1)
	assert.Equal(t, "FOLDTSET v1", tree.Chunks[0].Chunk)
	txtr := tree.Chunks[0].Children[0]
	assert.Equal(t, "tex", txtr.Name)
	require.Len(t, txtr.Children[0].Children, 3)
	assert.Equal(t, "DATATDAT v1", txtr.Children[0].Children[2].Chunk)
	assert.Equal(t, 24, txtr.Children[0].Children[2].Size)

	_, err := run(t, "chunks", testutil.WriteFile(t, dir, "plain.txt", bytes.Repeat([]byte("x"), 64)))
	require.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	_, err := run(t)
	require.EqualError(t, err, "subcommand required")

	_, err = run(t, "frobnicate")
	require.ErrorContains(t, err, `unknown command "frobnicate"`)

	_, err = run(t, "ls")
	var ue *usageError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "essence ls", ue.cmd)

	_, err = run(t, "ls", "--bogus", ".")
	require.ErrorContains(t, err, "unknown flag: --bogus")

	_, err = run(t, "ls", filepath.Join(t.TempDir(), "file.zip"))
	require.Error(t, err)

	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Empty(t, out)

	var help bytes.Buffer
	newApp(&bytes.Buffer{}, &help).root().PrintHelp(&help)
	assert.Contains(t, help.String(), "Commands:")
	assert.Contains(t, help.String(), "extract")
}
