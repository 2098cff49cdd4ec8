// Package cache provides a bounded, symbol-keyed LRU used to memoize
// resolved lot snapshots between requests.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Entry is a cached value with the time it was stored.
type Entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// LRU is a fixed-capacity least-recently-used cache keyed by string.
// Safe for concurrent use.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // Front = most recently used
	items    map[string]*list.Element
}

type lruNode[V any] struct {
	key   string
	entry Entry[V]
}

// NewLRU creates a cache holding at most capacity entries.
// Capacity below 1 is raised to 1.
func NewLRU[V any](capacity int) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached value and true when key is present,
// promoting the entry to most recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruNode[V]).entry.Value, true
}

// Put stores a value, evicting the least recently used entry when full.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruNode[V]).entry = Entry[V]{Value: value, StoredAt: time.Now()}
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&lruNode[V]{
		key:   key,
		entry: Entry[V]{Value: value, StoredAt: time.Now()},
	})
	c.items[key] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*lruNode[V]).key)
		}
	}
}

// Invalidate removes a key. Returns true when it was present.
func (c *LRU[V]) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.order.Remove(elem)
	delete(c.items, key)
	return true
}

// EvictOlderThan removes entries stored before the cutoff and
// returns how many were dropped.
func (c *LRU[V]) EvictOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		node := elem.Value.(*lruNode[V])
		if node.entry.StoredAt.Before(cutoff) {
			c.order.Remove(elem)
			delete(c.items, node.key)
			dropped++
		}
		elem = prev
	}
	return dropped
}

// Keys returns the cached keys, most recently used first.
func (c *LRU[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*lruNode[V]).key)
	}
	return keys
}

// Len returns the number of cached entries.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
