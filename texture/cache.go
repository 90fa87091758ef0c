package texture

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/essence/arena"
	"github.com/meigma/essence/filesource"
)

// WhitePath is the path of the built-in opaque white texture that every
// Cache serves without reading its source.
const WhitePath = `shaders\texture_white.rgt`

// White returns a 1x1 opaque white texture in R32G32B32A32_FLOAT.
func White() *Texture {
	data := make([]byte, 0, 16)
	for range 4 {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(1))
	}
	return &Texture{
		Width:  1,
		Height: 1,
		Format: Format{DXGI: DXGIR32G32B32A32Float, Ratio: 16},
		Mips:   []Mip{{Width: 1, Height: 1, Texels: 1, Pitch: 16, Data: data}},
		arena:  arena.New(),
	}
}

// Cache loads textures from a file source once and shares them between
// callers. It is safe for concurrent use.
type Cache struct {
	src   filesource.FileSource
	opts  []Option
	group singleflight.Group

	mu       sync.Mutex
	textures map[string]*Texture
}

// NewCache returns a cache reading from src.
func NewCache(src filesource.FileSource, opts ...Option) *Cache {
	return &Cache{
		src:      src,
		opts:     opts,
		textures: map[string]*Texture{WhitePath: White()},
	}
}

// Load returns the texture at path, loading it on first use. Concurrent
// loads of the same path share one read.
func (c *Cache) Load(path string) (*Texture, error) {
	key := filesource.Normalize(path)
	if t, ok := c.lookup(key); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		t, err := LoadFrom(c.src, key, c.opts...)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.textures[key] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Texture), nil //nolint:errcheck // the group only stores textures
}

func (c *Cache) lookup(key string) (*Texture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[key]
	return t, ok
}

// Len returns the number of cached textures, including the white texture.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.textures)
}

// Close releases every cached texture.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for key, t := range c.textures {
		errs = append(errs, t.Close())
		delete(c.textures, key)
	}
	return errors.Join(errs...)
}
