package essence

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/essence/cache"
	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/internal/testutil"
	"github.com/meigma/essence/sga"
)

var sampleTree = map[string]string{
	"Data/Art/Marine.rgm": strings.Repeat("marine ", 1000),
	"Data/readme.txt":     "hello",
	"Locale/ui.ucs":       "ui strings",
}

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range sampleTree {
		testutil.WriteFile(t, dir, name, []byte(data))
	}
	return dir
}

func packTree(t *testing.T, opts ...sga.BuildOption) string {
	t.Helper()
	var buf bytes.Buffer
	n, err := Pack(context.Background(), writeTree(t), &buf, opts...)
	require.NoError(t, err)
	require.Equal(t, len(sampleTree), n)
	return testutil.WriteFile(t, t.TempDir(), "Packed.SGA", buf.Bytes())
}

func readString(t *testing.T, src filesource.FileSource, path string) string {
	t.Helper()
	data, err := filesource.ReadAll(src, path)
	require.NoError(t, err)
	return string(data)
}

func TestPackAndOpenArchive(t *testing.T) {
	t.Parallel()

	path := packTree(t, sga.BuildWithVersion(sga.Version5), sga.BuildWithName("packed"))
	mem := cache.NewMemory(1 << 20)
	src, err := Open(path, WithCache(mem), WithVerifyHashes(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	a, ok := src.(*sga.Archive)
	require.True(t, ok)
	assert.Equal(t, "packed", a.Name())
	assert.Equal(t, sga.Version5, a.Version())

	assert.Equal(t, sampleTree["Data/Art/Marine.rgm"], readString(t, src, `data\art\marine.rgm`))
	assert.Equal(t, "hello", readString(t, src, `data\readme.txt`))

	dirs, err := src.Dirs("")
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "locale"}, dirs)

	info, err := a.Stat(`data\readme.txt`)
	require.NoError(t, err)
	assert.False(t, info.ModTime.IsZero())
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()

	src, err := Open(writeTree(t))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "ui strings", readString(t, src, `LOCALE\UI.UCS`))
	files, err := src.Files("data")
	require.NoError(t, err)
	assert.Equal(t, []string{"readme.txt"}, files)
}

func TestOpenModule(t *testing.T) {
	t.Parallel()

	archive := packTree(t)
	root := filepath.Dir(archive)
	testutil.WriteFile(t, root, "Override/data/readme.txt", []byte("override"))
	module := testutil.WriteFile(t, root, "Game.module", []byte(`[global]
name = game

[data:common]
folder = Override
archive.01 = Packed
`))

	src, err := Open(module, WithOpenConcurrency(1), WithMaxFileSize(1<<20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	m, ok := src.(*filesource.Module)
	require.True(t, ok)
	assert.Len(t, m.Archives(), 1)
	assert.Equal(t, "override", readString(t, src, `data\readme.txt`))
	assert.Equal(t, "ui strings", readString(t, src, `locale\ui.ucs`))

	english, err := Open(module, WithSections("data:english"))
	require.NoError(t, err)
	defer english.Close()
	_, err = filesource.ReadAll(english, `data\readme.txt`)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.sga"))
	require.ErrorIs(t, err, os.ErrNotExist)

	txt := testutil.WriteFile(t, dir, "notes.txt", []byte("hi"))
	_, err = Open(txt)
	require.ErrorIs(t, err, ErrUnknownSource)

	bogus := testutil.WriteFile(t, dir, "bogus.sga", bytes.Repeat([]byte{'x'}, 512))
	_, err = Open(bogus)
	require.ErrorIs(t, err, ErrNotArchive)
}

func TestExtract(t *testing.T) {
	t.Parallel()

	src, err := Open(packTree(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	dest := filepath.Join(t.TempDir(), "out")
	stats, err := Extract(context.Background(), src, dest, "", ExtractWithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Extracted)
	assert.Equal(t, uint64(len(sampleTree["Data/Art/Marine.rgm"])+5+10), stats.Bytes)

	data, err := os.ReadFile(filepath.Join(dest, "data", "art", "marine.rgm"))
	require.NoError(t, err)
	assert.Equal(t, sampleTree["Data/Art/Marine.rgm"], string(data))

	stats, err = Extract(context.Background(), src, dest, "data")
	require.NoError(t, err)
	assert.Equal(t, ExtractStats{Skipped: 2}, stats)

	stats, err = Extract(context.Background(), src, dest, `DATA\ART`,
		ExtractWithOverwrite(true), ExtractWithDirectWrites(true), ExtractWithReadAheadBytes(64))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Extracted)
}

func TestPackRejectsSymlinks(t *testing.T) {
	t.Parallel()

	dir := writeTree(t)
	if err := os.Symlink(filepath.Join(dir, "Data", "readme.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	_, err := Pack(context.Background(), dir, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrSymlink)
}

func TestPackCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Pack(ctx, writeTree(t), &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
}
