package cache

import (
	"container/list"
	"sync"
	"time"
)

// ttlLRU is a bounded in-process cache tier with per-entry TTL and
// least-recently-used eviction. Expired entries are treated as misses and
// removed lazily on access. All read-modify-write paths hold the mutex so
// eviction bookkeeping cannot race.
type ttlLRU[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	clock    Clock
}

type lruEntry[V any] struct {
	key       string
	value     V
	createdAt time.Time
	ttl       time.Duration
}

func newTTLLRU[V any](capacity int, clock Clock) *ttlLRU[V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &ttlLRU[V]{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		clock:    clock,
	}
}

func (c *ttlLRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*lruEntry[V])
	if c.expired(entry) {
		c.removeLocked(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

func (c *ttlLRU[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry[V])
		entry.value = value
		entry.createdAt = c.clock.Now()
		entry.ttl = ttl
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.capacity {
		c.removeLocked(c.order.Back())
	}

	elem := c.order.PushFront(&lruEntry[V]{
		key:       key,
		value:     value,
		createdAt: c.clock.Now(),
		ttl:       ttl,
	})
	c.items[key] = elem
}

func (c *ttlLRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Logically expired entries do not count; they are unreachable.
	n := 0
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if !c.expired(elem.Value.(*lruEntry[V])) {
			n++
		}
	}
	return n
}

func (c *ttlLRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

func (c *ttlLRU[V]) expired(entry *lruEntry[V]) bool {
	return entry.ttl > 0 && c.clock.Now().Sub(entry.createdAt) > entry.ttl
}

func (c *ttlLRU[V]) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*lruEntry[V])
	delete(c.items, entry.key)
	c.order.Remove(elem)
}
