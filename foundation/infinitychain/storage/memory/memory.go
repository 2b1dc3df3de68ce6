// Package memory implements the storage.KV interface with an in memory map.
// It backs tests and ephemeral nodes.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/psinfinity/infinitychain/foundation/infinitychain/storage"
)

// Memory represents an in memory implementation of the storage.KV interface.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{
		data: make(map[string][]byte),
	}
}

// Get returns the value stored under the specified key.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[key]
	if !exists {
		return nil, storage.ErrKeyNotFound
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

// Put stores the value under the specified key.
func (m *Memory) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}

// Delete removes the specified key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// List returns every item whose key starts with the prefix, in ascending
// key order.
func (m *Memory) List(prefix string) ([]storage.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	items := make([]storage.Item, len(keys))
	for i, key := range keys {
		value := m.data[key]
		cp := make([]byte, len(value))
		copy(cp, value)
		items[i] = storage.Item{Key: key, Value: cp}
	}

	return items, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}
