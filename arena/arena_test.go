package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestArena_AllocIsolated(t *testing.T) {
	t.Parallel()

	a := New()
	first, err := a.Alloc(5)
	require.NoError(t, err)
	second, err := a.Alloc(7)
	require.NoError(t, err)

	copy(first, "hello")
	copy(second, "goodbye")
	first = append(first, '!')

	assert.Equal(t, "goodbye", string(second))
	assert.Len(t, first, 6)
	assert.Equal(t, 1, a.Stats().Blocks)
}

func TestArena_GrowsBlocks(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.Alloc(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(64<<10), a.Stats().BlockBytes)

	big, err := a.Alloc(100 << 10)
	require.NoError(t, err)
	assert.Len(t, big, 100<<10)
	assert.Equal(t, 2, a.Stats().Blocks)
	assert.Equal(t, uint64(64<<10+256<<10), a.Stats().BlockBytes)
}

func TestArena_ReleaseRunsCleanupsInOrder(t *testing.T) {
	t.Parallel()

	a := New()
	var order []int
	a.Defer(func() error { order = append(order, 1); return nil })
	a.AddCloser(closerFunc(func() error { order = append(order, 2); return errors.New("close failed") }))
	v := Make(a, func(p *int) error { order = append(order, *p); return nil })
	*v = 3

	err := a.Release()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	assert.Equal(t, []int{1, 2, 3}, order)

	require.NoError(t, a.Release())
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.True(t, a.Released())

	_, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrReleased)
}

func TestArena_OutOfMemory(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.Alloc(-1)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	_, err = a.Alloc(MaxAllocation + 1)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestArena_UsesWholeBlock(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.Alloc(16)
	require.NoError(t, err)
	block := int(a.Stats().BlockBytes)

	_, err = a.Alloc(block - 16)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Stats().Blocks)

	_, err = a.Alloc(1)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Stats().Blocks)
}

func TestNewSized(t *testing.T) {
	t.Parallel()

	a, err := NewSized(10)
	require.NoError(t, err)

	b, err := a.Alloc(6)
	require.NoError(t, err)
	c, err := a.Clone([]byte("abcd"))
	require.NoError(t, err)
	copy(b, "123456")
	assert.Equal(t, "abcd", string(c))

	_, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 1, a.Stats().Blocks)
}
