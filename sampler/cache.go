package sampler

import (
	"container/list"
	"sync"
	"time"

	"github.com/engels74/moversentinel/models"
)

// ttlCache is a bounded, LRU-evicted store of DiskSample results keyed by
// a canonical roots/exclusions string, adapted from the pattern used by
// resource managers that cap a long-running process's memory footprint
// regardless of how many distinct key combinations callers present.
type ttlCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type cacheEntry struct {
	key      string
	sample   models.DiskSample
	storedAt time.Time
}

func newTTLCache(capacity int) *ttlCache {
	return &ttlCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// get returns the cached sample for key if present and younger than ttl,
// promoting it to most-recently-used. A stale or absent entry is a miss.
func (c *ttlCache) get(key string, ttl time.Duration) (models.DiskSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return models.DiskSample{}, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Since(entry.storedAt) > ttl {
		c.order.Remove(el)
		delete(c.entries, key)
		return models.DiskSample{}, false
	}
	c.order.MoveToFront(el)
	return entry.sample, true
}

// put stores sample under key, evicting the least-recently-used entry if
// the cache is at capacity. A non-positive capacity stores nothing.
func (c *ttlCache) put(key string, sample models.DiskSample) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).sample = sample
		el.Value.(*cacheEntry).storedAt = time.Now()
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, sample: sample, storedAt: time.Now()})
	c.entries[key] = el

	if c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}
