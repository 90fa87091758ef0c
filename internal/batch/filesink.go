package batch

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/essence/internal/pathutil"
)

// FileSink writes files below a destination directory.
//
// By default each file is written to a temporary file in its final
// directory and renamed into place on Commit, so a partially written file
// never appears at the final path. All paths are resolved inside the
// destination with os.Root.
type FileSink struct {
	destDir     string
	overwrite   bool
	directWrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows overwriting existing files.
// By default, existing files are skipped.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// NewFileSink creates a FileSink that writes to destDir, which must exist.
func NewFileSink(destDir string, opts ...FileSinkOption) *FileSink {
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// relPath converts a backslash-separated source path to a relative OS path.
func relPath(path string) (string, error) {
	slashed := pathutil.ToSlash(path)
	if !fs.ValidPath(slashed) || slashed == "." {
		return "", &fs.PathError{Op: "extract", Path: path, Err: fs.ErrInvalid}
	}
	return filepath.FromSlash(slashed), nil
}

// ShouldProcess returns false for invalid paths, and for existing files
// unless overwriting is enabled.
func (s *FileSink) ShouldProcess(path string) bool {
	rel, err := relPath(path)
	if err != nil {
		return false
	}
	if s.overwrite {
		return true
	}
	_, err = os.Stat(filepath.Join(s.destDir, rel))
	return errors.Is(err, fs.ErrNotExist)
}

// Writer returns a Committer for path, creating its parent directories.
func (s *FileSink) Writer(path string) (Committer, error) {
	rel, err := relPath(path)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if err := root.MkdirAll(filepath.Dir(rel), 0o750); err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create directory for %s: %w", rel, err)
	}

	if s.directWrite {
		f, err := root.OpenFile(rel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", rel, err)
		}
		return &committer{file: f, fileRel: rel, root: root}, nil
	}

	tmp, tmpRel, err := createTempFile(root, filepath.Dir(rel), ".essence-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &committer{file: tmp, fileRel: tmpRel, destRel: rel, root: root}, nil
}

// committer writes to fileRel and, when destRel is set, renames it there on
// Commit.
type committer struct {
	file    *os.File
	fileRel string
	destRel string
	root    *os.Root
}

func (c *committer) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

func (c *committer) Commit() error {
	if err := c.file.Close(); err != nil {
		return c.fail(fmt.Errorf("close %s: %w", c.fileRel, err))
	}
	if c.destRel != "" {
		if err := c.root.Rename(c.fileRel, c.destRel); err != nil {
			return c.fail(fmt.Errorf("rename to %s: %w", c.destRel, err))
		}
	}
	return c.root.Close()
}

func (c *committer) fail(err error) error {
	_ = c.root.Remove(c.fileRel) //nolint:errcheck // best-effort cleanup
	_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
	return err
}

func (c *committer) Discard() error {
	_ = c.file.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.fileRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		rel := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(rel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, rel, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
