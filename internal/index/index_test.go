package index

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Sizing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n     int
		slots int
	}{
		{n: 0, slots: 2},
		{n: 1, slots: 2},
		{n: 2, slots: 4},
		{n: 3, slots: 8},
		{n: 5, slots: 8},
		{n: 7, slots: 16},
		{n: 100, slots: 256},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			t.Parallel()
			tab := New[int](tt.n)
			assert.Len(t, tab.slots, tt.slots)
			assert.GreaterOrEqual(t, tab.Cap(), tt.n)
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	names := []string{"", `art`, `art\ebps`, `art\ebps\races`, `data\art`, `sound`}
	tab := New[int](len(names))
	for i, name := range names {
		require.True(t, tab.Insert(name, i))
	}
	assert.Equal(t, len(names), tab.Len())

	for i, name := range names {
		got, ok := tab.Lookup(name)
		require.True(t, ok, "missing %q", name)
		assert.Equal(t, i, got)
	}

	_, ok := tab.Lookup(`art\ebps\missing`)
	assert.False(t, ok)
}

func TestTable_LookupAll(t *testing.T) {
	t.Parallel()

	tab := New[int](5)
	tab.Insert("head", 1)
	tab.Insert("body", 2)
	tab.Insert("head", 3)
	tab.Insert("head", 4)

	assert.Equal(t, []int{1, 3, 4}, slices.Collect(tab.LookupAll("head")))
	assert.Equal(t, []int{2}, slices.Collect(tab.LookupAll("body")))
	assert.Empty(t, slices.Collect(tab.LookupAll("legs")))

	first, ok := tab.Lookup("head")
	require.True(t, ok)
	assert.Equal(t, 1, first)
}

func TestTable_Full(t *testing.T) {
	t.Parallel()

	tab := New[string](1)
	require.True(t, tab.Insert("a", "a"))
	assert.False(t, tab.Insert("b", "b"))
	_, ok := tab.Lookup("b")
	assert.False(t, ok)
}

func BenchmarkTable_Lookup(b *testing.B) {
	const n = 4096
	tab := New[int](n)
	keys := make([]string, n)
	for i := range n {
		keys[i] = fmt.Sprintf(`data\art\dir%04d`, i)
		tab.Insert(keys[i], i)
	}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		_, _ = tab.Lookup(keys[i%n])
		i++
	}
}
