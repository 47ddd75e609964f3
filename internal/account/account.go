// Package account holds the identity records behind API keys: who owns a
// key, which plan they are on, and how much of their monthly scoring quota
// they have used.
package account

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotFound   = errors.New("account: not found")
	ErrEmailTaken = errors.New("account: email already registered")
)

// Account is one provisioned identity. The raw API key is never stored;
// only its SHA-256 hash is kept for lookup.
type Account struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	KeyHash       string    `json:"-"`
	Plan          Plan      `json:"plan"`
	MonthlyQuota  int       `json:"monthlyQuota"`
	UsedThisMonth int       `json:"usedThisMonth"`
	UsageMonth    time.Time `json:"usageMonth"` // first day of the month, UTC
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Remaining returns the unused portion of the monthly quota.
func (a *Account) Remaining() int {
	if r := a.MonthlyQuota - a.UsedThisMonth; r > 0 {
		return r
	}
	return 0
}

// MonthStart truncates t to the first day of its calendar month in UTC.
// Usage counters are tagged with this value.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
