package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps entries in process. Entries are stored as JSON so a
// caller can never mutate a cached value through a returned pointer.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, hash string) (*Entry, error) {
	m.mu.RLock()
	b, ok := m.entries[hash]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeEntry(b)
}

func (m *MemoryStore) Upsert(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := *e
	if b, ok := m.entries[e.DocumentHash]; ok {
		prev, err := decodeEntry(b)
		if err != nil {
			return err
		}
		next.AccessCount = prev.AccessCount
		next.LastAccessed = prev.LastAccessed
	}
	b, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	m.entries[e.DocumentHash] = b
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.entries[hash]
	if !ok {
		return ErrNotFound
	}
	e, err := decodeEntry(b)
	if err != nil {
		return err
	}
	e.AccessCount++
	e.LastAccessed = at
	if b, err = json.Marshal(e); err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	m.entries[hash] = b
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[hash]; !ok {
		return ErrNotFound
	}
	delete(m.entries, hash)
	return nil
}

func (m *MemoryStore) Evict(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for hash, b := range m.entries {
		e, err := decodeEntry(b)
		if err != nil || e.LastAccessed.Before(cutoff) {
			delete(m.entries, hash)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }

func decodeEntry(b []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &e, nil
}
