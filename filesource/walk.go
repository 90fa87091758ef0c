package filesource

import (
	"iter"

	"github.com/meigma/essence/internal/pathutil"
)

// Walk yields the path of every file under dir, depth first. The files of a
// directory come before its subdirectories, each in listing order. Empty
// directory names are skipped. A listing error is yielded once with an
// empty path and ends the walk.
func Walk(src FileSource, dir string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walk(src, Normalize(dir), yield)
	}
}

func walk(src FileSource, dir string, yield func(string, error) bool) bool {
	files, err := src.Files(dir)
	if err != nil {
		yield("", err)
		return false
	}
	for _, name := range files {
		if !yield(pathutil.Join(dir, name), nil) {
			return false
		}
	}
	dirs, err := src.Dirs(dir)
	if err != nil {
		yield("", err)
		return false
	}
	for _, name := range dirs {
		if name == "" {
			continue
		}
		if !walk(src, pathutil.Join(dir, name), yield) {
			return false
		}
	}
	return true
}
