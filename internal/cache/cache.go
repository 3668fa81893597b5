// Package cache provides a bounded in-memory key/value store with age-based
// and size-based eviction. It never fails; it only bounds memory.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	key     string
	value   V
	updated time.Time
}

// Cache is a bounded store keyed by string. Entries older than maxAge are
// dropped, and the total entry count never exceeds maxEntries immediately
// after any Put. Eviction walks an ordered index (oldest update first)
// instead of re-sorting, so it stays cheap when the cache sits at capacity.
type Cache[V any] struct {
	mu         sync.Mutex
	maxAge     time.Duration
	maxEntries int
	items      map[string]*list.Element
	order      *list.List // front = least recently updated

	now func() time.Time
}

// New creates a cache holding at most maxEntries values, each valid for at
// most maxAge after its last Put.
func New[V any](maxAge time.Duration, maxEntries int) *Cache[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache[V]{
		maxAge:     maxAge,
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evict()

	if el, ok := c.items[key]; ok {
		return el.Value.(*entry[V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key, replacing any previous value wholesale and
// refreshing its timestamp. The size bound holds when Put returns.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evict()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.updated = c.now()
		c.order.MoveToBack(el)
		return
	}

	c.items[key] = c.order.PushBack(&entry[V]{key: key, value: value, updated: c.now()})

	for c.order.Len() > c.maxEntries {
		c.removeOldest()
	}
}

// Len returns the current number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// evict drops every entry older than maxAge, then trims oldest-first down to
// maxEntries. Caller must hold the lock.
func (c *Cache[V]) evict() {
	cutoff := c.now().Add(-c.maxAge)
	for {
		front := c.order.Front()
		if front == nil {
			break
		}
		if front.Value.(*entry[V]).updated.After(cutoff) {
			break
		}
		c.removeOldest()
	}

	for c.order.Len() > c.maxEntries {
		c.removeOldest()
	}
}

func (c *Cache[V]) removeOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	delete(c.items, front.Value.(*entry[V]).key)
	c.order.Remove(front)
}
