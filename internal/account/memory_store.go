package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory account store for demo/development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account // by ID
	byHash   map[string]string   // key hash → ID
	byEmail  map[string]string   // email → ID
}

// NewMemoryStore creates a new in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		byHash:   make(map[string]string),
		byEmail:  make(map[string]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[a.Email]; exists {
		return ErrEmailTaken
	}

	cp := *a
	m.accounts[a.ID] = &cp
	m.byHash[a.KeyHash] = a.ID
	m.byEmail[a.Email] = a.ID
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) GetByKeyHash(_ context.Context, hash string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.accounts[a.ID]
	if !ok {
		return ErrNotFound
	}
	if prev.KeyHash != a.KeyHash {
		delete(m.byHash, prev.KeyHash)
		m.byHash[a.KeyHash] = a.ID
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemoryStore) SetUsage(_ context.Context, id string, monthStart time.Time, quota, used int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.UsageMonth = monthStart
	a.MonthlyQuota = quota
	a.UsedThisMonth = used
	a.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Store = (*MemoryStore)(nil)
