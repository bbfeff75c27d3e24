// Package shard provides Map, an integer-keyed map split into a fixed number
// of independently locked buckets. Parallel ranking accumulates relevance
// into a Map and the index keeps its document entries in one, so concurrent
// work on different keys contends on at most one bucket at a time.
package shard

import "sync"

// Integer is the set of key types a Map accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

type bucket[K Integer, V any] struct {
	mu sync.Mutex
	m  map[K]V
}

// Map is a bucketed concurrent map. A key lives in bucket
// uint64(key) % bucketCount. No method holds more than one bucket lock at
// a time.
type Map[K Integer, V any] struct {
	buckets []bucket[K, V]
}

// New creates a Map with bucketCount buckets. A non-positive bucketCount is
// a programming error and panics.
func New[K Integer, V any](bucketCount int) *Map[K, V] {
	if bucketCount <= 0 {
		panic("shard: bucket count must be positive")
	}
	m := &Map[K, V]{buckets: make([]bucket[K, V], bucketCount)}
	for i := range m.buckets {
		m.buckets[i].m = make(map[K]V)
	}
	return m
}

func (m *Map[K, V]) bucketFor(key K) *bucket[K, V] {
	return &m.buckets[uint64(key)%uint64(len(m.buckets))]
}

// BucketCount returns the number of buckets.
func (m *Map[K, V]) BucketCount() int {
	return len(m.buckets)
}

// Access locks key's bucket and calls fn with the key's slot, creating a
// zero-valued slot if the key is absent. The pointer is valid only inside fn.
func (m *Map[K, V]) Access(key K, fn func(value *V)) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.m[key]
	fn(&v)
	b.m[key] = v
}

func (m *Map[K, V]) Load(key K) (V, bool) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.m[key]
	return v, ok
}

// LoadOrStore returns the existing value for key if present. Otherwise it
// stores value and returns it. loaded reports which happened.
func (m *Map[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.m[key]; ok {
		return v, true
	}
	b.m[key] = value
	return value, false
}

// Erase removes key and reports whether it was present.
func (m *Map[K, V]) Erase(key K) bool {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.m[key]
	delete(b.m, key)
	return ok
}

// LoadAndErase removes key and returns its previous value.
func (m *Map[K, V]) LoadAndErase(key K) (V, bool) {
	b := m.bucketFor(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.m[key]
	if ok {
		delete(b.m, key)
	}
	return v, ok
}

// Len counts entries bucket by bucket; it is exact only when no writer runs.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		n += len(b.m)
		b.mu.Unlock()
	}
	return n
}

// BuildOrdinaryMap drains every bucket, in bucket order, into one plain map
// and leaves the Map empty. It is meant as the single terminal step of a
// parallel operation, after all writers have finished.
func (m *Map[K, V]) BuildOrdinaryMap() map[K]V {
	merged := make(map[K]V)
	for i := range m.buckets {
		b := &m.buckets[i]
		b.mu.Lock()
		for k, v := range b.m {
			merged[k] = v
		}
		b.m = make(map[K]V)
		b.mu.Unlock()
	}
	return merged
}
