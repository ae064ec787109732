package cache

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMemoryBytes bounds a Memory cache created with a zero capacity.
const DefaultMemoryBytes = 1 << 20

type memoryItem struct {
	key   string
	entry *Entry
	size  int64
}

// Memory is an in-process LRU cache bounded by total entry size.
type Memory struct {
	mu       sync.Mutex
	capacity int64
	used     int64
	order    *list.List
	items    map[string]*list.Element
}

// NewMemory returns a Memory holding at most capacity bytes. A capacity
// of zero or less selects DefaultMemoryBytes.
func NewMemory(capacity int64) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryBytes
	}

	return &Memory{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	m.order.MoveToFront(el)

	return el.Value.(*memoryItem).entry, nil
}

// Set stores e. An entry larger than the whole cache is not stored.
func (m *Memory) Set(_ context.Context, key string, e *Entry) error {
	size := e.Size() + int64(len(key))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(key)
	if size > m.capacity {
		return nil
	}

	m.items[key] = m.order.PushFront(&memoryItem{key: key, entry: e, size: size})
	m.used += size

	for m.used > m.capacity {
		oldest := m.order.Back()
		m.remove(oldest.Value.(*memoryItem).key)
	}

	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.remove(key)
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.order.Init()
	clear(m.items)
	m.used = 0
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.items)
}

func (m *Memory) remove(key string) {
	el, ok := m.items[key]
	if !ok {
		return
	}

	m.used -= el.Value.(*memoryItem).size
	m.order.Remove(el)
	delete(m.items, key)
}
