package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultTTL applies when neither the caller nor the constructor supplies one.
const DefaultTTL = 60 * time.Second

// layerMemory labels metrics emitted by TTLCache.
const layerMemory = "memory"

// TTLCache is an in-memory cache with per-entry expiry and optional LRU
// eviction. The zero value is not usable; create one with NewTTLCache.
//
// Expired entries are removed lazily when they are next accessed. A single
// mutex guards the map and the recency list.
type TTLCache[V any] struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front is most recently used
	defaultTTL time.Duration
	maxEntries int

	now func() time.Time
}

type ttlItem[V any] struct {
	key     string
	value   V
	expires time.Time
}

// NewTTLCache creates a cache whose entries live for defaultTTL unless Store
// is given an explicit TTL. maxEntries <= 0 means unbounded.
func NewTTLCache[V any](defaultTTL time.Duration, maxEntries int) *TTLCache[V] {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if maxEntries < 0 {
		maxEntries = 0
	}

	return &TTLCache[V]{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Lookup returns the value for key if present and not expired.
// A hit marks the entry as most recently used.
func (c *TTLCache[V]) Lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.liveLocked(key)
	if !ok {
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return zero, false
	}

	c.order.MoveToFront(elem)
	CacheHits.WithLabelValues(layerMemory).Inc()
	return elem.Value.(*ttlItem[V]).value, true
}

// Contains reports whether key holds an unexpired entry. It does not count
// as an access for eviction purposes.
func (c *TTLCache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.liveLocked(key)
	return ok
}

// Store inserts or replaces the value for key. A ttl <= 0 selects the
// cache's default TTL.
func (c *TTLCache[V]) Store(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(ttl)

	if elem, ok := c.items[key]; ok {
		item := elem.Value.(*ttlItem[V])
		item.value = value
		item.expires = expires
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&ttlItem[V]{key: key, value: value, expires: expires})
	CacheEntries.WithLabelValues(layerMemory).Inc()

	if c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		c.removeLocked(c.order.Back())
		CacheEvictions.WithLabelValues(layerMemory).Inc()
	}
}

// Delete removes key and reports whether it was present.
func (c *TTLCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	return true
}

// Len returns the number of stored entries, including expired entries that
// have not been accessed since they expired.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge removes all entries.
func (c *TTLCache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	CacheEntries.WithLabelValues(layerMemory).Sub(float64(c.order.Len()))
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// liveLocked returns the element for key, deleting it if it has expired.
func (c *TTLCache[V]) liveLocked(key string) (*list.Element, bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}

	if c.now().After(elem.Value.(*ttlItem[V]).expires) {
		c.removeLocked(elem)
		CacheExpirations.WithLabelValues(layerMemory).Inc()
		return nil, false
	}

	return elem, true
}

func (c *TTLCache[V]) removeLocked(elem *list.Element) {
	item := c.order.Remove(elem).(*ttlItem[V])
	delete(c.items, item.key)
	CacheEntries.WithLabelValues(layerMemory).Dec()
}
