package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutGet(t *testing.T) {
	t.Parallel()

	c := NewMemory(0)
	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Put("a", []byte("alpha")))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", string(got))

	require.NoError(t, c.Put("a", []byte("aa")))
	assert.Equal(t, int64(2), c.SizeBytes())
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("a"))
	require.NoError(t, c.Delete("a"))
	assert.Zero(t, c.SizeBytes())
}

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := NewMemory(10)
	require.NoError(t, c.Put("a", make([]byte, 4)))
	require.NoError(t, c.Put("b", make([]byte, 4)))
	_, ok := c.Get("a")
	require.True(t, ok)

	require.NoError(t, c.Put("c", make([]byte, 4)))
	_, ok = c.Get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(8), c.SizeBytes())

	require.NoError(t, c.Put("huge", make([]byte, 11)))
	_, ok = c.Get("huge")
	assert.False(t, ok)
	assert.Equal(t, int64(10), c.MaxBytes())
}

func TestMemory_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewMemory(1 << 10)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				key := fmt.Sprintf("%d-%d", i, j%10)
				_ = c.Put(key, make([]byte, 16))
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.SizeBytes(), int64(1<<10))
}
