package filesource

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/meigma/essence/mappable"
)

// Dir is a source backed by a directory on disk.
//
// Paths are matched case-insensitively and listings are lowercase, so a
// directory behaves like an archive extracted into it.
type Dir struct {
	root string
	opts []mappable.Option
}

// NewDir returns a source rooted at the directory root. Files are opened
// with mappable.Open and opts.
func NewDir(root string, opts ...mappable.Option) *Dir {
	return &Dir{root: root, opts: opts}
}

// Root returns the directory the source is rooted at.
func (d *Dir) Root() string {
	return d.root
}

// resolve maps an archive-style path onto the file system. Each element is
// tried verbatim first and then matched against the directory listing
// ignoring case.
func (d *Dir) resolve(path string) (string, error) {
	cur := d.root
	path = strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`)
	if path == "" {
		return cur, nil
	}
	for elem := range strings.SplitSeq(path, `\`) {
		if elem == "" || elem == "." || elem == ".." {
			return "", fs.ErrNotExist
		}
		next := filepath.Join(cur, elem)
		if _, err := os.Lstat(next); err == nil {
			cur = next
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", err
		}
		i := slices.IndexFunc(entries, func(e fs.DirEntry) bool {
			return strings.EqualFold(e.Name(), elem)
		})
		if i < 0 {
			return "", fs.ErrNotExist
		}
		cur = filepath.Join(cur, entries[i].Name())
	}
	return cur, nil
}

// ReadFile implements FileSource.
func (d *Dir) ReadFile(path string) (mappable.File, error) {
	full, err := d.resolve(path)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	return mappable.Open(full, d.opts...)
}

// Files implements FileSource.
func (d *Dir) Files(path string) ([]string, error) {
	return d.list(path, false)
}

// Dirs implements FileSource.
func (d *Dir) Dirs(path string) ([]string, error) {
	return d.list(path, true)
}

func (d *Dir) list(path string, dirs bool) ([]string, error) {
	full, err := d.resolve(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(full); err != nil || !info.IsDir() {
		return nil, nil //nolint:nilerr // a missing directory lists as empty
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		names = append(names, strings.ToLower(e.Name()))
	}
	slices.Sort(names)
	return names, nil
}
