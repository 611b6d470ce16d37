package registry

import (
	"slices"
	"sync"
)

// Registry maps keys to values and remembers the order keys arrived in.
// Keys and Values return snapshots in that order.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	order   []K
	entries map[K]V
}

// New returns an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{entries: make(map[K]V)}
}

// Add stores value under key unless key is taken, and reports whether it
// did. The first registration of a key wins.
func (r *Registry[K, V]) Add(key K, value V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.entries[key]; taken {
		return false
	}
	r.order = append(r.order, key)
	r.entries[key] = value
	return true
}

// Register stores value under key, replacing any previous value in place.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.entries[key]; !taken {
		r.order = append(r.order, key)
	}
	r.entries[key] = value
}

// Get returns the value under key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Delete removes key. Missing keys are ignored.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return
	}
	delete(r.entries, key)
	if i := slices.Index(r.order, key); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Keys returns the keys in arrival order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Values returns the values in key arrival order.
func (r *Registry[K, V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values := make([]V, len(r.order))
	for i, k := range r.order {
		values[i] = r.entries[k]
	}
	return values
}

// Len returns the number of keys.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
