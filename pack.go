package essence

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/sga"
)

// Pack builds an archive from the regular files below dir and writes it to
// w. Paths are stored relative to dir in normalized form, lowercase with
// backslash separators, so files differing only in case collide. It returns
// the number of files packed.
//
// Pack reads every file into memory before building the archive.
// Symbolic links are rejected with ErrSymlink.
func Pack(ctx context.Context, dir string, w io.Writer, opts ...sga.BuildOption) (int, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return 0, err
	}
	defer root.Close()

	var entries []sga.BuildEntry
	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return fmt.Errorf("%w: %s", ErrSymlink, path)
		case d.IsDir() || !d.Type().IsRegular():
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(root.FS(), path)
		if err != nil {
			return err
		}
		entries = append(entries, sga.BuildEntry{
			Path:    filesource.Normalize(path),
			Data:    data,
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := sga.Build(w, entries, opts...); err != nil {
		return 0, err
	}
	return len(entries), nil
}
