// Package quota enforces per-account monthly scoring quotas.
//
// Usage counters are tagged with the calendar month they belong to. On the
// first request of a new month the counter resets to 0 and the ceiling is
// re-derived from the account's current plan, before any comparison — so a
// plan change takes effect at the next rollover at the latest.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mparedes/fraudscore/internal/account"
	"github.com/mparedes/fraudscore/internal/syncutil"
)

// ErrQuotaExceeded is returned when an account's monthly ceiling is reached.
// Not transient: the caller stays blocked until the next calendar month.
var ErrQuotaExceeded = errors.New("quota: monthly quota exceeded")

// Tracker consumes quota units against the account store.
type Tracker struct {
	store account.Store
	locks syncutil.ShardedMutex
	now   func() time.Time
}

// Option configures the tracker.
type Option func(*Tracker)

// WithClock overrides the clock (for tests).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a quota tracker over the given store.
func NewTracker(store account.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CheckAndConsume takes exactly one quota unit from the account, rolling
// the month window first if the calendar month changed. It fails with
// ErrQuotaExceeded when the ceiling is reached, leaving usage untouched.
// A persistence failure surfaces as a wrapped error with no partial
// increment observable afterwards.
//
// Writers for the same account are serialized by a per-key lock; different
// accounts proceed in parallel.
func (t *Tracker) CheckAndConsume(ctx context.Context, accountID string) error {
	unlock := t.locks.Lock(accountID)
	defer unlock()

	acct, err := t.store.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("quota: load account: %w", err)
	}

	// Month rollover happens before the comparison, even on the first
	// request of a new month.
	month := account.MonthStart(t.now())
	used := acct.UsedThisMonth
	quota := acct.MonthlyQuota
	if !acct.UsageMonth.Equal(month) {
		used = 0
		quota = account.QuotaFor(acct.Plan)
	}

	if used >= quota {
		return ErrQuotaExceeded
	}

	if err := t.store.SetUsage(ctx, accountID, month, quota, used+1); err != nil {
		return fmt.Errorf("quota: persist usage: %w", err)
	}
	return nil
}

// Usage reports the account's current-month usage and ceiling, applying a
// pending month rollover to the view (without persisting it).
func (t *Tracker) Usage(ctx context.Context, accountID string) (used, quota int, month time.Time, err error) {
	acct, err := t.store.Get(ctx, accountID)
	if err != nil {
		return 0, 0, time.Time{}, fmt.Errorf("quota: load account: %w", err)
	}

	month = account.MonthStart(t.now())
	if !acct.UsageMonth.Equal(month) {
		return 0, account.QuotaFor(acct.Plan), month, nil
	}
	return acct.UsedThisMonth, acct.MonthlyQuota, month, nil
}
