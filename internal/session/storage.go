package session

import (
	"maps"
	"sync"
)

// Storage is the persisted key-value backing for a [Store].
//
// SetMany and DeleteMany must be atomic across their keys.
type Storage interface {
	Get(key string) (string, bool, error)
	SetMany(entries map[string]string) error
	DeleteMany(keys ...string) error
}

// MemoryStorage is a process-local [Storage].
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]string
	failure error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryStorage) SetMany(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return m.failure
	}
	maps.Copy(m.entries, entries)
	return nil
}

func (m *MemoryStorage) DeleteMany(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failure != nil {
		return m.failure
	}
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// Set writes a single raw entry, bypassing the store. Useful for seeding corrupt state.
func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Len returns the number of stored entries.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// FailWrites makes every subsequent write return err. A nil err restores normal behavior.
func (m *MemoryStorage) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}
