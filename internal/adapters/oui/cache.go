package oui

import (
	"container/list"
	"sync"
)

// vendorCache remembers registry answers per OUI prefix, including prefixes
// the registry does not know, and evicts the least recently used prefix.
type vendorCache struct {
	mu       sync.Mutex
	capacity int
	byPrefix map[string]*list.Element
	recency  *list.List
}

type cachedVendor struct {
	prefix string
	vendor string
	known  bool
}

func newVendorCache(capacity int) *vendorCache {
	if capacity < 1 {
		capacity = 1
	}
	return &vendorCache{
		capacity: capacity,
		byPrefix: make(map[string]*list.Element, capacity),
		recency:  list.New(),
	}
}

// lookup returns the remembered answer for prefix; found is false when the
// prefix was never resolved.
func (c *vendorCache) lookup(prefix string) (vendor string, known, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byPrefix[prefix]
	if !ok {
		return "", false, false
	}
	c.recency.MoveToFront(el)
	v := el.Value.(*cachedVendor)
	return v.vendor, v.known, true
}

func (c *vendorCache) remember(prefix, vendor string) {
	c.store(cachedVendor{prefix: prefix, vendor: vendor, known: true})
}

func (c *vendorCache) rememberUnknown(prefix string) {
	c.store(cachedVendor{prefix: prefix})
}

func (c *vendorCache) store(v cachedVendor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byPrefix[v.prefix]; ok {
		*el.Value.(*cachedVendor) = v
		c.recency.MoveToFront(el)
		return
	}
	c.byPrefix[v.prefix] = c.recency.PushFront(&v)
	for c.recency.Len() > c.capacity {
		last := c.recency.Back()
		c.recency.Remove(last)
		delete(c.byPrefix, last.Value.(*cachedVendor).prefix)
	}
}

func (c *vendorCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}
