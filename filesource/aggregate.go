package filesource

import (
	"errors"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/meigma/essence/mappable"
)

// Aggregate layers several sources. Reads are served by the first source
// holding the file; listings merge all sources.
type Aggregate struct {
	sources []FileSource
	logger  *slog.Logger
}

// NewAggregate returns an aggregate over sources in priority order.
func NewAggregate(sources ...FileSource) *Aggregate {
	return &Aggregate{sources: slices.Clone(sources)}
}

func (a *Aggregate) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Append adds src at the lowest priority.
func (a *Aggregate) Append(src FileSource) {
	a.sources = append(a.sources, src)
}

// Len returns the number of layered sources.
func (a *Aggregate) Len() int {
	return len(a.sources)
}

// ReadFile implements FileSource. Errors other than a missing file stop the
// search.
func (a *Aggregate) ReadFile(path string) (mappable.File, error) {
	norm := Normalize(path)
	for i, src := range a.sources {
		f, err := src.ReadFile(norm)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		a.log().Debug("source miss", "path", norm, "source", i)
	}
	return nil, &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
}

// Files implements FileSource. Names are sorted and unique.
func (a *Aggregate) Files(path string) ([]string, error) {
	return a.list(path, FileSource.Files)
}

// Dirs implements FileSource. Names are sorted and unique.
func (a *Aggregate) Dirs(path string) ([]string, error) {
	return a.list(path, FileSource.Dirs)
}

func (a *Aggregate) list(path string, fn func(FileSource, string) ([]string, error)) ([]string, error) {
	norm := Normalize(path)
	var names []string
	for _, src := range a.sources {
		got, err := fn(src, norm)
		if err != nil {
			return nil, err
		}
		names = append(names, got...)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
