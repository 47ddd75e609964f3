package audit

import (
	"context"
	"sync"

	"github.com/mparedes/fraudscore/internal/pagination"
)

// MemoryStore is an in-memory event log for dev and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events = append(m.events, &cp)
	return nil
}

// ListByAccount returns the newest events first, at most limit of them.
func (m *MemoryStore) ListByAccount(_ context.Context, accountID string, limit int, cursor *pagination.Cursor) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.events[i]
		if e.AccountID != accountID {
			continue
		}
		if cursor != nil && !olderThan(e, cursor) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// olderThan reports whether the event sits strictly before the cursor
// position in (created_at, id) descending order.
func olderThan(e *Event, c *pagination.Cursor) bool {
	if e.CreatedAt.Before(c.CreatedAt) {
		return true
	}
	return e.CreatedAt.Equal(c.CreatedAt) && e.ID < c.ID
}

func (m *MemoryStore) CountByAccount(_ context.Context, accountID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.events {
		if e.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

var _ Store = (*MemoryStore)(nil)
