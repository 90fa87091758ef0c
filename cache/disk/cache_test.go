package disk

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, c.Put(`ww2data.sga:art\ebps\marine.rgm`, []byte("hello")))
	got, ok := c.Get(`ww2data.sga:art\ebps\marine.rgm`)
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, int64(5), c.SizeBytes())

	sum := sha256.Sum256([]byte(`ww2data.sga:art\ebps\marine.rgm`))
	name := hex.EncodeToString(sum[:])
	_, err = os.Stat(filepath.Join(dir, name[:defaultShardPrefixLen], name))
	require.NoError(t, err)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheShardDisable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithShardPrefixLen(0))
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("v")))

	sum := sha256.Sum256([]byte("k"))
	_, err = os.Stat(filepath.Join(dir, hex.EncodeToString(sum[:])))
	require.NoError(t, err)
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("value")))
	require.NoError(t, c.Delete("k"))
	require.NoError(t, c.Delete("k"))
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.SizeBytes())
}

func TestCacheMaxBytesPrunesOldest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, WithMaxBytes(10))
	require.NoError(t, err)

	require.NoError(t, c.Put("old", []byte("123456")))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(c.entryPath("old"), old, old))

	require.NoError(t, c.Put("new", []byte("abcdef")))
	_, ok := c.Get("old")
	assert.False(t, ok)
	_, ok = c.Get("new")
	assert.True(t, ok)
	assert.Equal(t, int64(6), c.SizeBytes())

	require.NoError(t, c.Put("huge", make([]byte, 11)))
	_, ok = c.Get("huge")
	assert.False(t, ok)
}

func TestNewReportsExistingSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, c.Put("a", []byte("abc")))

	reopened, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(3), reopened.SizeBytes())

	_, err = New("")
	require.ErrorIs(t, err, ErrNoDir)
	_, err = New(dir, WithMaxBytes(-1))
	require.ErrorIs(t, err, ErrInvalidOption)
	_, err = New(dir, WithShardPrefixLen(-1))
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestPruneSkipsPartialWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var logs bytes.Buffer
	c, err := New(dir, WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	require.NoError(t, err)
	require.NoError(t, c.Put("a", []byte("abcd")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"partial"), []byte("xxxxxxxx"), 0o600))

	freed, err := c.Prune(0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), freed)
	assert.Zero(t, c.SizeBytes())
	assert.FileExists(t, filepath.Join(dir, tempPrefix+"partial"))
	assert.Contains(t, logs.String(), "disk cache pruned")

	freed, err = c.Prune(0)
	require.NoError(t, err)
	assert.Zero(t, freed)
}
