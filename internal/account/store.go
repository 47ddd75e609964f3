package account

import (
	"context"
	"time"
)

// Store persists accounts.
type Store interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	GetByKeyHash(ctx context.Context, hash string) (*Account, error)
	Update(ctx context.Context, a *Account) error
	// SetUsage persists the quota fields only: the month tag, the derived
	// ceiling, and the usage counter. Callers serialize writers per
	// account; the write itself must be atomic.
	SetUsage(ctx context.Context, id string, monthStart time.Time, quota, used int) error
}
