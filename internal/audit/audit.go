// Package audit keeps a trail of scoring decisions. Appends are
// best-effort: a failed write is logged and swallowed so the audit path
// can never fail a request that was already scored.
package audit

import (
	"context"
	"time"

	"github.com/mparedes/fraudscore/internal/pagination"
)

// Event is one scored transaction, recorded after the verdict.
type Event struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Amount    float64   `json:"amount"`
	Country   string    `json:"country"`
	Score     int       `json:"fraud_score"`
	Risk      string    `json:"risk"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists score events.
type Store interface {
	Append(ctx context.Context, e *Event) error
	// ListByAccount returns the newest events first. A non-nil cursor
	// restricts the page to events strictly older than the cursor position.
	ListByAccount(ctx context.Context, accountID string, limit int, cursor *pagination.Cursor) ([]*Event, error)
	CountByAccount(ctx context.Context, accountID string) (int, error)
}
