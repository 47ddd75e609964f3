package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mparedes/fraudscore/internal/idgen"
	"github.com/mparedes/fraudscore/internal/logging"
	"github.com/mparedes/fraudscore/internal/scoring"
)

// Recorder appends score events without ever propagating a failure.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a best-effort recorder over the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record writes one event for a scored transaction. Storage errors are
// logged and dropped; the scoring response has already been decided.
func (r *Recorder) Record(ctx context.Context, accountID string, tx *scoring.Transaction, res *scoring.Result) {
	e := &Event{
		ID:        idgen.WithPrefix("evt_"),
		AccountID: accountID,
		Amount:    tx.Amount,
		Country:   tx.Country,
		Score:     res.FraudScore,
		Risk:      string(res.Risk),
		CreatedAt: r.now().UTC(),
	}
	if err := r.store.Append(ctx, e); err != nil {
		logging.L(ctx).Warn("audit append failed",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
	}
}
