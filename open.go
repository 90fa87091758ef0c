package essence

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/essence/filesource"
	"github.com/meigma/essence/sga"
)

// Source is a file source that holds resources until closed.
type Source interface {
	filesource.FileSource
	io.Closer
}

// dirSource adapts a directory, which holds nothing open, to Source.
type dirSource struct {
	*filesource.Dir
}

func (dirSource) Close() error { return nil }

// Open opens path as a file source. Directories are read directly, files
// ending in .sga are opened as archives and files ending in .module as
// modules.
func Open(path string, opts ...Option) (Source, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return dirSource{filesource.NewDir(path)}, nil
	}

	var src Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sga":
		a, err := sga.OpenPath(path, cfg.archiveOptions()...)
		if err != nil {
			return nil, err
		}
		src = a
	case ".module":
		m, err := filesource.OpenModule(path, cfg.moduleOptions()...)
		if err != nil {
			return nil, err
		}
		src = m
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, path)
	}
	return src, nil
}
