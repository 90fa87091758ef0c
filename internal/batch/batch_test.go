package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/essence/mappable"
)

type memSource map[string]string

func (m memSource) ReadFile(path string) (mappable.File, error) {
	data, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return mappable.NewMemory([]byte(data)), nil
}

func sampleSource() memSource {
	return memSource{
		"readme.txt":          "hello",
		`data\art\marine.rgm`: strings.Repeat("m", 4096),
		`data\empty.bin`:      "",
	}
}

func paths(src memSource) []string {
	out := make([]string, 0, len(src))
	for p := range src {
		out = append(out, p)
	}
	return out
}

func readDest(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestProcess(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		opts  []ProcessorOption
		write []FileSinkOption
	}{
		{name: "default"},
		{name: "serial", opts: []ProcessorOption{WithWorkers(-1)}},
		{name: "small budget", opts: []ProcessorOption{WithWorkers(4), WithReadAheadBytes(16)}},
		{name: "direct writes", write: []FileSinkOption{WithDirectWrites(true)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			src := sampleSource()
			dest := t.TempDir()

			stats, err := NewProcessor(src, tc.opts...).Process(context.Background(), paths(src), NewFileSink(dest, tc.write...))
			require.NoError(t, err)
			assert.Equal(t, Stats{Processed: 3, TotalBytes: 5 + 4096}, stats)

			assert.Equal(t, "hello", readDest(t, dest, "readme.txt"))
			assert.Equal(t, src[`data\art\marine.rgm`], readDest(t, dest, "data/art/marine.rgm"))
			assert.Empty(t, readDest(t, dest, "data/empty.bin"))

			leftovers, err := filepath.Glob(filepath.Join(dest, "data", ".essence-*"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestProcessSkipsExisting(t *testing.T) {
	t.Parallel()

	src := sampleSource()
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "readme.txt"), []byte("local"), 0o600))

	stats, err := NewProcessor(src).Process(context.Background(), paths(src), NewFileSink(dest))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, "local", readDest(t, dest, "readme.txt"))

	stats, err = NewProcessor(src).Process(context.Background(), []string{"readme.txt"}, NewFileSink(dest, WithOverwrite(true)))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, "hello", readDest(t, dest, "readme.txt"))
}

func TestProcessRejectsEscapingPaths(t *testing.T) {
	t.Parallel()

	src := memSource{`..\evil.txt`: "x", `\abs.txt`: "y"}
	dest := t.TempDir()
	sink := NewFileSink(dest, WithOverwrite(true))
	assert.False(t, sink.ShouldProcess(`..\evil.txt`))
	assert.False(t, sink.ShouldProcess(""))

	stats, err := NewProcessor(src).Process(context.Background(), paths(src), sink)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)

	_, err = sink.Writer(`a\..\..\evil.txt`)
	require.ErrorIs(t, err, fs.ErrInvalid)
}

func TestProcessReadError(t *testing.T) {
	t.Parallel()

	src := sampleSource()
	dest := t.TempDir()
	_, err := NewProcessor(src).Process(context.Background(), []string{"readme.txt", "missing.txt"}, NewFileSink(dest))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestProcessCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := sampleSource()
	_, err := NewProcessor(src).Process(ctx, paths(src), NewFileSink(t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
}

type failingSink struct {
	mu        sync.Mutex
	discarded []string
}

func (s *failingSink) ShouldProcess(string) bool { return true }

func (s *failingSink) Writer(path string) (Committer, error) {
	return &failingWriter{sink: s, path: path}, nil
}

type failingWriter struct {
	sink *failingSink
	path string
}

func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func (w *failingWriter) Commit() error { return fmt.Errorf("commit after failed write: %s", w.path) }

func (w *failingWriter) Discard() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.discarded = append(w.sink.discarded, w.path)
	return nil
}

func TestProcessDiscardsOnWriteError(t *testing.T) {
	t.Parallel()

	sink := &failingSink{}
	_, err := NewProcessor(memSource{"a.txt": "a"}).Process(context.Background(), []string{"a.txt"}, sink)
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"a.txt"}, sink.discarded)
}

func BenchmarkProcess(b *testing.B) {
	src := memSource{}
	for i := range 64 {
		src[fmt.Sprintf(`data\file%02d.bin`, i)] = strings.Repeat("x", 16<<10)
	}
	list := paths(src)
	b.ReportAllocs()
	for b.Loop() {
		dest := b.TempDir()
		if _, err := NewProcessor(src).Process(context.Background(), list, NewFileSink(dest)); err != nil {
			b.Fatal(err)
		}
	}
}
