// Package admission decides whether a caller may invoke the scorer right
// now. The gate composes credential resolution, the per-identity rate
// limiter, and the monthly quota tracker, short-circuiting on the first
// failure.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mparedes/fraudscore/internal/account"
	"github.com/mparedes/fraudscore/internal/auth"
	"github.com/mparedes/fraudscore/internal/logging"
	"github.com/mparedes/fraudscore/internal/quota"
	"github.com/mparedes/fraudscore/internal/ratelimit"
)

// ErrRateLimited is returned when the identity's per-minute window is
// exhausted. Transient: the caller should back off until the window rolls.
var ErrRateLimited = errors.New("admission: rate limit exceeded")

// Gate runs the admission pipeline.
type Gate struct {
	auth    *auth.Manager
	limiter *ratelimit.Limiter
	quota   *quota.Tracker

	// registeredRPM caps non-demo identities; demo identities use the
	// stricter ceiling from the plan catalogue.
	registeredRPM int
}

// NewGate creates an admission gate. registeredRPM is the per-minute
// ceiling applied to registered (non-demo) identities.
func NewGate(authMgr *auth.Manager, limiter *ratelimit.Limiter, tracker *quota.Tracker, registeredRPM int) *Gate {
	return &Gate{
		auth:          authMgr,
		limiter:       limiter,
		quota:         tracker,
		registeredRPM: registeredRPM,
	}
}

// Admit resolves the credential and charges one request against the
// identity's rate window and monthly quota. The returned account reflects
// the usage after this request's unit was taken. On failure nothing beyond
// the limiter's own attempt record is mutated; specifically, a rate-limited
// or quota-blocked request never consumes quota.
func (g *Gate) Admit(ctx context.Context, rawKey string) (*account.Account, error) {
	acct, err := g.auth.Resolve(ctx, rawKey)
	if err != nil {
		return nil, err
	}

	// Even rejected attempts count against the window.
	if !g.limiter.Allow(acct.ID, g.limitFor(acct)) {
		logging.L(ctx).Info("request rate limited",
			slog.String("account_id", acct.ID),
			slog.String("plan", string(acct.Plan)),
		)
		return nil, ErrRateLimited
	}

	if err := g.quota.CheckAndConsume(ctx, acct.ID); err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			logging.L(ctx).Info("monthly quota exhausted",
				slog.String("account_id", acct.ID),
				slog.String("plan", string(acct.Plan)),
			)
			return nil, err
		}
		return nil, fmt.Errorf("admission: consume quota: %w", err)
	}

	// The resolved copy predates the consume; refresh the usage fields so
	// callers see the state this request's unit produced.
	used, ceiling, month, err := g.quota.Usage(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("admission: refresh usage: %w", err)
	}
	acct.UsedThisMonth = used
	acct.MonthlyQuota = ceiling
	acct.UsageMonth = month

	return acct, nil
}

func (g *Gate) limitFor(acct *account.Account) int {
	if acct.Plan == account.PlanDemo {
		return account.RateLimitFor(account.PlanDemo)
	}
	return g.registeredRPM
}
