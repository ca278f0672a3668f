package memory

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	size      int
}

// Options tunes an LRUTTL beyond its bounds.
type Options[K comparable, V any] struct {
	// Sliding pushes an entry's expiry forward on every hit.
	Sliding bool
	// OnEvict runs, outside the lock, for entries dropped by expiry or
	// capacity. Explicit Delete and Clear do not call it.
	OnEvict func(key K, value V)
	// Now replaces time.Now.
	Now func() time.Time
}

// LRUTTL is a threadsafe LRU cache with per-entry TTL and an optional
// byte budget.
type LRUTTL[K comparable, V any] struct {
	mu         sync.Mutex
	ll         *list.List
	items      map[K]*list.Element
	maxEntries int
	maxBytes   int
	totalBytes int
	ttl        time.Duration

	sliding bool
	onEvict func(K, V)
	now     func() time.Time
}

func NewLRUTTL[K comparable, V any](maxEntries int, maxBytes int, ttl time.Duration) *LRUTTL[K, V] {
	return NewLRUTTLWithOptions[K, V](maxEntries, maxBytes, ttl, Options[K, V]{})
}

func NewLRUTTLWithOptions[K comparable, V any](maxEntries int, maxBytes int, ttl time.Duration, opts Options[K, V]) *LRUTTL[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &LRUTTL[K, V]{
		ll:         list.New(),
		items:      make(map[K]*list.Element),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		ttl:        ttl,
		sliding:    opts.Sliding,
		onEvict:    opts.OnEvict,
		now:        now,
	}
}

func (c *LRUTTL[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	var evicted []*entry[K, V]
	defer func() { c.notify(evicted) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	ele, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := ele.Value.(*entry[K, V])
	now := c.now()
	if now.After(ent.expiresAt) {
		evicted = append(evicted, c.removeElement(ele))
		return zero, false
	}
	if c.sliding {
		ent.expiresAt = now.Add(c.ttl)
	}
	c.ll.MoveToFront(ele)
	return ent.value, true
}

func (c *LRUTTL[K, V]) Set(key K, value V, sizeBytes int) {
	if c == nil {
		return
	}
	c.SetUntil(key, value, sizeBytes, c.now().Add(c.ttl))
}

// SetUntil stores value with an explicit expiry instead of now+ttl. An
// expiry already in the past stores nothing.
func (c *LRUTTL[K, V]) SetUntil(key K, value V, sizeBytes int, expiresAt time.Time) {
	if c == nil {
		return
	}
	if !c.now().Before(expiresAt) {
		c.Delete(key)
		return
	}
	if sizeBytes < 0 {
		sizeBytes = 0
	}
	var evicted []*entry[K, V]
	defer func() { c.notify(evicted) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.items[key]; ok {
		ent := ele.Value.(*entry[K, V])
		c.totalBytes -= ent.size
		ent.value = value
		ent.size = sizeBytes
		ent.expiresAt = expiresAt
		c.totalBytes += ent.size
		c.ll.MoveToFront(ele)
		evicted = c.evictLocked()
		return
	}

	ent := &entry[K, V]{
		key:       key,
		value:     value,
		size:      sizeBytes,
		expiresAt: expiresAt,
	}
	c.items[key] = c.ll.PushFront(ent)
	c.totalBytes += sizeBytes
	evicted = c.evictLocked()
}

func (c *LRUTTL[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.items[key]; ok {
		c.removeElement(ele)
	}
}

// Len counts entries, including expired ones not yet swept.
func (c *LRUTTL[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Sweep drops every expired entry and returns how many were removed.
func (c *LRUTTL[K, V]) Sweep() int {
	if c == nil {
		return 0
	}
	var evicted []*entry[K, V]
	defer func() { c.notify(evicted) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for ele := c.ll.Back(); ele != nil; {
		prev := ele.Prev()
		if now.After(ele.Value.(*entry[K, V]).expiresAt) {
			evicted = append(evicted, c.removeElement(ele))
		}
		ele = prev
	}
	return len(evicted)
}

func (c *LRUTTL[K, V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll = list.New()
	c.items = make(map[K]*list.Element)
	c.totalBytes = 0
}

func (c *LRUTTL[K, V]) evictLocked() []*entry[K, V] {
	var out []*entry[K, V]
	for c.ll.Len() > 0 {
		if c.ll.Len() <= c.maxEntries && (c.maxBytes <= 0 || c.totalBytes <= c.maxBytes) {
			break
		}
		out = append(out, c.removeElement(c.ll.Back()))
	}
	return out
}

func (c *LRUTTL[K, V]) removeElement(ele *list.Element) *entry[K, V] {
	c.ll.Remove(ele)
	ent := ele.Value.(*entry[K, V])
	delete(c.items, ent.key)
	c.totalBytes -= ent.size
	if c.totalBytes < 0 {
		c.totalBytes = 0
	}
	return ent
}

func (c *LRUTTL[K, V]) notify(evicted []*entry[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, ent := range evicted {
		c.onEvict(ent.key, ent.value)
	}
}
