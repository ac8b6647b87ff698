package storage

import (
	"context"
	"sync"
	"time"

	"PolicyDigest/internal/ports"
)

type sessionRecord struct {
	state   []byte
	updated time.Time
}

// MemorySessionStore keeps wizard records in process memory.
type MemorySessionStore struct {
	mu      sync.Mutex
	records map[string]sessionRecord
	now     func() time.Time
}

var _ ports.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore builds an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{records: map[string]sessionRecord{}, now: time.Now}
}

func (m *MemorySessionStore) Load(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(rec.state))
	copy(out, rec.state)
	return out, true, nil
}

func (m *MemorySessionStore) Save(_ context.Context, id string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(state))
	copy(cp, state)
	m.records[id] = sessionRecord{state: cp, updated: m.now()}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

func (m *MemorySessionStore) Sweep(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, rec := range m.records {
		if rec.updated.Before(olderThan) {
			delete(m.records, id)
			removed++
		}
	}
	return removed, nil
}
