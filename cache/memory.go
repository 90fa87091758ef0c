package cache

import (
	"container/list"
	"sync"
)

// Memory is an in-memory least-recently-used cache bounded by total content
// size. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	maxBytes int64
	bytes    int64
	order    *list.List // front is most recently used
	entries  map[string]*list.Element
}

type memoryEntry struct {
	key     string
	content []byte
}

// NewMemory returns a cache holding at most maxBytes of content. A
// non-positive maxBytes disables the limit.
func NewMemory(maxBytes int64) *Memory {
	return &Memory{
		maxBytes: max(maxBytes, 0),
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get implements Cache.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*memoryEntry).content, true //nolint:errcheck // only memoryEntry values are stored
}

// Put implements Cache. Content larger than the whole cache is not stored.
func (m *Memory) Put(key string, content []byte) error {
	size := int64(len(content))
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxBytes > 0 && size > m.maxBytes {
		return nil
	}
	if el, ok := m.entries[key]; ok {
		m.removeElement(el)
	}
	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, content: content})
	m.bytes += size

	for m.maxBytes > 0 && m.bytes > m.maxBytes {
		m.removeElement(m.order.Back())
	}
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		m.removeElement(el)
	}
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MaxBytes implements Sized.
func (m *Memory) MaxBytes() int64 {
	return m.maxBytes
}

// SizeBytes implements Sized.
func (m *Memory) SizeBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytes
}

func (m *Memory) removeElement(el *list.Element) {
	e := m.order.Remove(el).(*memoryEntry) //nolint:errcheck // only memoryEntry values are stored
	delete(m.entries, e.key)
	m.bytes -= int64(len(e.content))
}

var (
	_ Cache = (*Memory)(nil)
	_ Sized = (*Memory)(nil)
)
