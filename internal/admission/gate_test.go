package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mparedes/fraudscore/internal/account"
	"github.com/mparedes/fraudscore/internal/auth"
	"github.com/mparedes/fraudscore/internal/quota"
	"github.com/mparedes/fraudscore/internal/ratelimit"
)

func newGate(t *testing.T, registeredRPM int) (*Gate, *auth.Manager, *ratelimit.Limiter) {
	t.Helper()
	store := account.NewMemoryStore()
	mgr := auth.NewManager(store)
	limiter := ratelimit.New()
	t.Cleanup(limiter.Stop)
	tracker := quota.NewTracker(store)
	return NewGate(mgr, limiter, tracker, registeredRPM), mgr, limiter
}

func provision(t *testing.T, mgr *auth.Manager, plan account.Plan) (*account.Account, string) {
	t.Helper()
	acct, key, err := mgr.CreateAccount(context.Background(), "gate-"+string(plan)+"@example.com", plan)
	require.NoError(t, err)
	return acct, key
}

func TestGate_AdmitHappyPath(t *testing.T) {
	gate, mgr, _ := newGate(t, 60)
	acct, key := provision(t, mgr, account.PlanFree)

	got, err := gate.Admit(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, acct.ID, got.ID)

	// The returned account carries the usage including this request's unit.
	require.Equal(t, 1, got.UsedThisMonth)
	require.Equal(t, account.QuotaFor(account.PlanFree), got.MonthlyQuota)

	got, err = gate.Admit(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, 2, got.UsedThisMonth)
}

func TestGate_UnknownKey(t *testing.T) {
	gate, _, _ := newGate(t, 60)

	_, err := gate.Admit(context.Background(), "sk_nonsense")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestGate_RateLimitBeforeQuota(t *testing.T) {
	gate, mgr, _ := newGate(t, 2)
	_, key := provision(t, mgr, account.PlanFree)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := gate.Admit(ctx, key)
		require.NoError(t, err)
	}

	got, err := gate.Admit(ctx, key)
	require.Nil(t, got)
	require.ErrorIs(t, err, ErrRateLimited)

	// A rate-limited request must not burn quota.
	used, _, _, err := gate.quota.Usage(ctx, mustResolve(t, mgr, key).ID)
	require.NoError(t, err)
	require.Equal(t, 2, used)
}

func TestGate_RejectedAttemptsStillCount(t *testing.T) {
	gate, mgr, _ := newGate(t, 1)
	_, key := provision(t, mgr, account.PlanFree)

	ctx := context.Background()
	_, err := gate.Admit(ctx, key)
	require.NoError(t, err)

	// Hammering past the limit keeps the window saturated.
	for i := 0; i < 5; i++ {
		_, err := gate.Admit(ctx, key)
		require.ErrorIs(t, err, ErrRateLimited)
	}
}

func TestGate_QuotaExceeded(t *testing.T) {
	store := account.NewMemoryStore()
	mgr := auth.NewManager(store)
	limiter := ratelimit.New()
	t.Cleanup(limiter.Stop)
	tracker := quota.NewTracker(store)
	gate := NewGate(mgr, limiter, tracker, 1000)

	ctx := context.Background()
	acct, key, err := mgr.CreateAccount(ctx, "exhausted@example.com", account.PlanFree)
	require.NoError(t, err)
	require.NoError(t, store.SetUsage(ctx, acct.ID, acct.UsageMonth, acct.MonthlyQuota, acct.MonthlyQuota))

	got, err := gate.Admit(ctx, key)
	require.Nil(t, got)
	require.ErrorIs(t, err, quota.ErrQuotaExceeded)
}

func TestGate_DemoPlanUsesCatalogueLimit(t *testing.T) {
	store := account.NewMemoryStore()
	mgr := auth.NewManager(store)
	limiter := ratelimit.New()
	t.Cleanup(limiter.Stop)
	tracker := quota.NewTracker(store)
	// Registered ceiling far above the demo catalogue entry.
	gate := NewGate(mgr, limiter, tracker, 1000)

	ctx := context.Background()
	const demoKey = "sk_demo_fixture"
	acct, err := mgr.EnsureDemo(ctx, demoKey)
	require.NoError(t, err)
	require.Equal(t, account.PlanDemo, acct.Plan)

	limit := account.RateLimitFor(account.PlanDemo)
	for i := 0; i < limit; i++ {
		_, err := gate.Admit(ctx, demoKey)
		require.NoError(t, err)
	}
	_, err = gate.Admit(ctx, demoKey)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestGate_WindowRolloverReadmits(t *testing.T) {
	store := account.NewMemoryStore()
	mgr := auth.NewManager(store)

	now := time.Date(2026, 3, 10, 12, 0, 30, 0, time.UTC)
	limiter := ratelimit.New(ratelimit.WithClock(func() time.Time { return now }))
	t.Cleanup(limiter.Stop)
	tracker := quota.NewTracker(store)
	gate := NewGate(mgr, limiter, tracker, 1)

	ctx := context.Background()
	_, key, err := mgr.CreateAccount(ctx, "window@example.com", account.PlanFree)
	require.NoError(t, err)

	_, err = gate.Admit(ctx, key)
	require.NoError(t, err)
	_, err = gate.Admit(ctx, key)
	require.ErrorIs(t, err, ErrRateLimited)

	now = now.Add(time.Minute)
	_, err = gate.Admit(ctx, key)
	require.NoError(t, err)
}

func mustResolve(t *testing.T, mgr *auth.Manager, key string) *account.Account {
	t.Helper()
	acct, err := mgr.Resolve(context.Background(), key)
	require.NoError(t, err)
	return acct
}

func TestGate_ResolveFailureShortCircuits(t *testing.T) {
	gate, _, _ := newGate(t, 60)

	_, err := gate.Admit(context.Background(), "")
	require.ErrorIs(t, err, auth.ErrUnauthorized)
	require.False(t, errors.Is(err, ErrRateLimited))
}
