package mockserver

import (
	"sort"
	"sync"
)

// memoryStore implements a Store on a plain map, for tests and throwaway
// mock servers.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]string)}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.records[key]
	return value, ok, nil
}

func (m *memoryStore) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = value
	return nil
}

func (m *memoryStore) Delete(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	delete(m.records, key)
	return ok, nil
}

func (m *memoryStore) Range(startKey, endKey string, limit int) ([]Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		if k >= startKey && k <= endKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	truncated := false
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
		truncated = true
	}

	records := make([]Record, 0, len(keys))
	for _, k := range keys {
		records = append(records, Record{Key: k, Value: m.records[k]})
	}
	return records, truncated, nil
}
