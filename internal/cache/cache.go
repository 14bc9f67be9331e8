package cache

import "sync"

// RefCache is a generic thread-safe cache of reference-counted values.
// A value is created on the first Acquire of its key and destroyed when
// the last reference is released.
//
// RefCache is safe for concurrent use.
// RefCache must not be copied after creation (has mutex).
type RefCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*refEntry[V]

	hits   uint64
	misses uint64
}

// refEntry holds a cached value with its reference count.
type refEntry[V any] struct {
	value V
	refs  int
}

// New creates an empty cache.
func New[K comparable, V any]() *RefCache[K, V] {
	return &RefCache[K, V]{
		entries: make(map[K]*refEntry[V]),
	}
}

// Acquire returns the value for key and takes a reference to it.
// If the key is not cached, create is called under lock to build the value;
// a create error is returned as is and nothing is cached.
func (c *RefCache[K, V]) Acquire(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.refs++
		c.hits++
		return e.value, nil
	}

	c.misses++
	value, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = &refEntry[V]{value: value, refs: 1}
	return value, nil
}

// Release drops one reference to key. When the count reaches zero the
// entry is removed and destroy is called with its value outside the lock.
// Releasing an unknown key is a no-op. Reports whether the value was
// destroyed.
func (c *RefCache[K, V]) Release(key K, destroy func(V)) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return false
	}
	e.refs--
	if e.refs > 0 {
		c.mu.Unlock()
		return false
	}
	delete(c.entries, key)
	c.mu.Unlock()

	if destroy != nil {
		destroy(e.value)
	}
	return true
}

// Refs returns the reference count of key, 0 if it is not cached.
func (c *RefCache[K, V]) Refs(key K) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.refs
	}
	return 0
}

// Drain removes every entry regardless of its reference count and calls
// destroy for each value.
func (c *RefCache[K, V]) Drain(destroy func(V)) {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[K]*refEntry[V])
	c.mu.Unlock()

	if destroy == nil {
		return
	}
	for _, e := range entries {
		destroy(e.value)
	}
}

// Len returns the number of entries in the cache.
func (c *RefCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache statistics.
func (c *RefCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:    len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
	for _, e := range c.entries {
		s.Refs += e.refs
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Refs is the sum of reference counts across entries.
	Refs int
	// Hits is the number of Acquire calls served from the cache.
	Hits uint64
	// Misses is the number of Acquire calls that created a value.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
}
