package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mparedes/fraudscore/internal/account"
)

func seedAccount(t *testing.T, store account.Store, plan account.Plan, used int, month time.Time) *account.Account {
	t.Helper()
	acct := &account.Account{
		ID:            "acct_1",
		Email:         "dev@example.com",
		KeyHash:       "hash1",
		Plan:          plan,
		MonthlyQuota:  account.QuotaFor(plan),
		UsedThisMonth: used,
		UsageMonth:    month,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Create(context.Background(), acct))
	return acct
}

func TestCheckAndConsume_Increments(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	seedAccount(t, store, account.PlanFree, 0, account.MonthStart(now))

	tracker := NewTracker(store, WithClock(func() time.Time { return now }))

	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))
	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))

	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, 2, got.UsedThisMonth)
}

func TestCheckAndConsume_QuotaBoundary(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// One unit left: admitted once, then blocked with usage unchanged.
	seedAccount(t, store, account.PlanFree, 99, account.MonthStart(now))
	tracker := NewTracker(store, WithClock(func() time.Time { return now }))

	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))

	err := tracker.CheckAndConsume(ctx, "acct_1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, 100, got.UsedThisMonth)
}

func TestCheckAndConsume_ExhaustedRegardlessOfInput(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	seedAccount(t, store, account.PlanFree, 100, account.MonthStart(now))

	tracker := NewTracker(store, WithClock(func() time.Time { return now }))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, tracker.CheckAndConsume(ctx, "acct_1"), ErrQuotaExceeded)
	}
}

func TestCheckAndConsume_MonthRollover(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()

	may := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	june := time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC)

	// Exhausted in May.
	seedAccount(t, store, account.PlanFree, 100, account.MonthStart(may))

	clock := may
	tracker := NewTracker(store, WithClock(func() time.Time { return clock }))

	assert.ErrorIs(t, tracker.CheckAndConsume(ctx, "acct_1"), ErrQuotaExceeded)

	// First request of June: rollover resets usage before the comparison.
	clock = june
	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))

	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, 1, got.UsedThisMonth)
	assert.True(t, got.UsageMonth.Equal(account.MonthStart(june)))
}

func TestCheckAndConsume_RolloverIdempotent(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()

	may := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	seedAccount(t, store, account.PlanFree, 42, account.MonthStart(may))

	june := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	tracker := NewTracker(store, WithClock(func() time.Time { return june }))

	// Two calls within the same month: only one reset.
	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))
	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))

	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, 2, got.UsedThisMonth)
}

func TestCheckAndConsume_RolloverRederivesCeiling(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()

	may := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	acct := seedAccount(t, store, account.PlanFree, 100, account.MonthStart(may))

	// Plan upgraded mid-month; stored ceiling still reflects free.
	acct.Plan = account.PlanStarter
	require.NoError(t, store.Update(ctx, acct))

	june := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	tracker := NewTracker(store, WithClock(func() time.Time { return june }))

	require.NoError(t, tracker.CheckAndConsume(ctx, "acct_1"))

	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, account.QuotaFor(account.PlanStarter), got.MonthlyQuota)
	assert.Equal(t, 1, got.UsedThisMonth)
}

func TestCheckAndConsume_UnknownAccount(t *testing.T) {
	tracker := NewTracker(account.NewMemoryStore())
	err := tracker.CheckAndConsume(context.Background(), "missing")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestCheckAndConsume_ConcurrentSameAccount(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// 5 units left, 20 concurrent requests: exactly 5 must win.
	seedAccount(t, store, account.PlanFree, 95, account.MonthStart(now))
	tracker := NewTracker(store, WithClock(func() time.Time { return now }))

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tracker.CheckAndConsume(ctx, "acct_1"); err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			} else if !errors.Is(err, ErrQuotaExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, admitted)
	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, 100, got.UsedThisMonth)
}

func TestUsage_AppliesPendingRolloverToView(t *testing.T) {
	ctx := context.Background()
	store := account.NewMemoryStore()

	may := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	seedAccount(t, store, account.PlanFree, 80, account.MonthStart(may))

	june := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	tracker := NewTracker(store, WithClock(func() time.Time { return june }))

	used, quota, month, err := tracker.Usage(ctx, "acct_1")
	require.NoError(t, err)
	assert.Equal(t, 0, used)
	assert.Equal(t, 100, quota)
	assert.True(t, month.Equal(account.MonthStart(june)))

	// The view does not persist the rollover.
	got, _ := store.Get(ctx, "acct_1")
	assert.Equal(t, 80, got.UsedThisMonth)
}
