// Package index provides the open-addressed string table used for name
// lookups inside archives and models.
package index

import (
	"iter"

	"github.com/meigma/essence/lookup2"
)

// Table maps strings to values. Keys are hashed with lookup2 and probed
// linearly; the table never grows, so it must be created with the final
// entry count.
//
// A key may be inserted more than once. Lookup returns the first value
// inserted for it and LookupAll yields every value in insertion order.
//
// Keys are retained by reference. Callers that build a table over names
// sliced out of a mapping must keep the mapping alive for the table's
// lifetime.
type Table[V any] struct {
	mask    uint32
	slots   []slot[V]
	entries int
}

type slot[V any] struct {
	hash uint32
	used bool
	key  string
	val  V
}

// New returns a table with room for n entries.
//
// The slot count is the smallest all-ones mask that covers n + n/3, plus
// one, which leaves at least one empty slot to terminate probes.
func New[V any](n int) *Table[V] {
	num := uint64(max(n, 0))
	num += num / 3
	mask := uint64(1)
	for mask < num {
		mask |= mask << 1
	}
	return &Table[V]{
		mask:  uint32(mask), //nolint:gosec // entry counts come from u32 archive fields
		slots: make([]slot[V], mask+1),
	}
}

// Len returns the number of inserted entries.
func (t *Table[V]) Len() int {
	return t.entries
}

// Cap returns the number of entries the table was sized for.
func (t *Table[V]) Cap() int {
	return len(t.slots) - 1
}

// Insert adds key with value v. It reports false when the table is full.
func (t *Table[V]) Insert(key string, v V) bool {
	if t.entries >= len(t.slots)-1 {
		return false
	}
	hash := lookup2.HashString(key, 0)
	i := hash
	for {
		i = (i + 1) & t.mask
		if !t.slots[i].used {
			break
		}
	}
	t.slots[i] = slot[V]{hash: hash, used: true, key: key, val: v}
	t.entries++
	return true
}

// Lookup returns the first value inserted under key.
func (t *Table[V]) Lookup(key string) (V, bool) {
	for v := range t.LookupAll(key) {
		return v, true
	}
	var zero V
	return zero, false
}

// LookupAll yields every value inserted under key.
func (t *Table[V]) LookupAll(key string) iter.Seq[V] {
	return func(yield func(V) bool) {
		hash := lookup2.HashString(key, 0)
		i := hash
		for {
			i = (i + 1) & t.mask
			s := &t.slots[i]
			if !s.used {
				return
			}
			if s.hash == hash && s.key == key {
				if !yield(s.val) {
					return
				}
			}
		}
	}
}
