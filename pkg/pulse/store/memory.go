package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory store for tests and ephemeral clients.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]storedValue // namespace -> key -> value
	closed bool
}

type storedValue struct {
	data      []byte
	updatedAt time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]storedValue),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(namespace, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if m.data[namespace] == nil {
		m.data[namespace] = make(map[string]storedValue)
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[namespace][key] = storedValue{
		data:      stored,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	v, ok := m.data[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}

	result := make([]byte, len(v.data))
	copy(result, v.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List(namespace string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	ns := m.data[namespace]
	infos := make([]Info, 0, len(ns))
	for key, v := range ns {
		infos = append(infos, Info{
			Namespace: namespace,
			Key:       key,
			UpdatedAt: v.updatedAt,
			Size:      int64(len(v.data)),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data[namespace], key)
	return nil
}

// DeleteNamespace implements Store.
func (m *MemoryStore) DeleteNamespace(namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, namespace)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the total number of values across all namespaces.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, ns := range m.data {
		count += len(ns)
	}
	return count
}
