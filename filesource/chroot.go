package filesource

import (
	"github.com/meigma/essence/internal/pathutil"
	"github.com/meigma/essence/mappable"
)

// ChRoot presents the subtree of base under root as a source of its own.
type ChRoot struct {
	base FileSource
	root string
}

// NewChRoot returns a source whose paths are resolved below root in base.
func NewChRoot(base FileSource, root string) *ChRoot {
	return &ChRoot{base: base, root: Normalize(root)}
}

func (c *ChRoot) path(p string) string {
	return pathutil.Join(c.root, p)
}

// ReadFile implements FileSource.
func (c *ChRoot) ReadFile(path string) (mappable.File, error) {
	return c.base.ReadFile(c.path(path))
}

// Files implements FileSource.
func (c *ChRoot) Files(path string) ([]string, error) {
	return c.base.Files(c.path(path))
}

// Dirs implements FileSource.
func (c *ChRoot) Dirs(path string) ([]string, error) {
	return c.base.Dirs(c.path(path))
}
