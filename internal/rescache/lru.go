package rescache

import (
	"container/list"
	"time"
)

// lruCache is a fixed-capacity LRU map. Both Get and Put promote the entry
// to most-recently-used. Not safe for concurrent use; Manager holds the lock.
type lruCache struct {
	cap   int
	ll    *list.List
	items map[string]*list.Element
}

type lruEntry struct {
	key        string
	value      string
	storedAt   time.Time
	lastAccess time.Time
	hits       int
}

func newLRU(capacity int) *lruCache {
	return &lruCache{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	el, ok := c.items[key]
	if !ok {
		return "", false
	}
	c.ll.MoveToFront(el)
	ent := el.Value.(*lruEntry)
	ent.lastAccess = time.Now()
	ent.hits++
	return ent.value, true
}

func (c *lruCache) put(key, value string) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		ent := el.Value.(*lruEntry)
		ent.value = value
		ent.lastAccess = time.Now()
		return
	}
	now := time.Now()
	el := c.ll.PushFront(&lruEntry{key: key, value: value, storedAt: now, lastAccess: now})
	c.items[key] = el
	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}

func (c *lruCache) len() int { return c.ll.Len() }

func (c *lruCache) clear() {
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.cap)
}
