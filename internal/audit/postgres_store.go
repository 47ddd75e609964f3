package audit

import (
	"context"
	"database/sql"

	"github.com/mparedes/fraudscore/internal/pagination"
)

// PostgresStore persists score events in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Append(ctx context.Context, e *Event) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO score_events (id, account_id, amount, country, fraud_score, risk, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AccountID, e.Amount, e.Country, e.Score, e.Risk, e.CreatedAt,
	)
	return err
}

func (p *PostgresStore) ListByAccount(ctx context.Context, accountID string, limit int, cursor *pagination.Cursor) ([]*Event, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cursor != nil {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, account_id, amount, country, fraud_score, risk, created_at
			FROM score_events
			WHERE account_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC LIMIT $4`,
			accountID, cursor.CreatedAt, cursor.ID, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT id, account_id, amount, country, fraud_score, risk, created_at
			FROM score_events WHERE account_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2`, accountID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Country, &e.Score, &e.Risk, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM score_events WHERE account_id = $1`, accountID).Scan(&n)
	return n, err
}

// Migrate creates the score_events table (used in dev/test; prod uses migration files).
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS score_events (
			id          TEXT PRIMARY KEY,
			account_id  TEXT NOT NULL,
			amount      DOUBLE PRECISION NOT NULL,
			country     TEXT NOT NULL,
			fraud_score INTEGER NOT NULL,
			risk        TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_score_events_account ON score_events(account_id, created_at DESC);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
