package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/url-redirector/internal/redirect"
)

// MemoryStore is an in-memory implementation of redirect.Repository.
// Expired records are treated as absent on both reads and conditional inserts.
type MemoryStore struct {
	mu         sync.RWMutex
	records    map[redirect.ID]*redirect.Record
	primaryKey string
	now        redirect.Clock
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore(primaryKey string, now redirect.Clock) *MemoryStore {
	if now == nil {
		now = time.Now
	}

	return &MemoryStore{
		records:    make(map[redirect.ID]*redirect.Record),
		primaryKey: primaryKey,
		now:        now,
	}
}

func (m *MemoryStore) PutIfAbsent(_ context.Context, record *redirect.Record) (redirect.PutOutcome, error) {
	if err := redirect.CheckAttributes(record.Attributes, m.primaryKey); err != nil {
		return redirect.PutSchemaRejected, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[record.ID]; ok && !existing.Expired(m.now()) {
		return redirect.PutConflict, redirect.ErrConflict
	}

	m.records[record.ID] = record.Clone()

	return redirect.PutCreated, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id redirect.ID) (*redirect.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok || rec.Expired(m.now()) {
		return nil, redirect.ErrNotFound
	}

	return rec.Clone(), nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

var _ redirect.Repository = (*MemoryStore)(nil)
