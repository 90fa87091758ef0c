package filesource

import (
	"bytes"
	"errors"

	"github.com/meigma/essence/internal/pathutil"
	"github.com/meigma/essence/mappable"
	"github.com/meigma/essence/sga"
)

// FileSource is a read-only tree of files.
//
// ReadFile fails with an error wrapping fs.ErrNotExist when path does not
// name a file. Files and Dirs list the entries directly inside a directory;
// a missing directory yields an empty list.
type FileSource interface {
	ReadFile(path string) (mappable.File, error)
	Files(path string) ([]string, error)
	Dirs(path string) ([]string, error)
}

var _ FileSource = (*sga.Archive)(nil)

// Normalize lowercases path, converts forward slashes to backslashes and
// removes a trailing separator.
func Normalize(path string) string {
	return pathutil.Normalize(path)
}

// ReadAll reads the whole file at path into memory.
func ReadAll(src FileSource, path string) ([]byte, error) {
	f, err := src.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := mappable.MapAll(f)
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	data := bytes.Clone(m.Bytes())
	return data, errors.Join(m.Close(), f.Close())
}
