package account

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed account store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, a *Account) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, key_hash, plan, monthly_quota, used_this_month, usage_month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Email, a.KeyHash, string(a.Plan),
		a.MonthlyQuota, a.UsedThisMonth, a.UsageMonth, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Account, error) {
	return p.scanAccount(p.db.QueryRowContext(ctx, `
		SELECT id, email, key_hash, plan, monthly_quota, used_this_month, usage_month, created_at, updated_at
		FROM accounts WHERE id = $1`, id))
}

func (p *PostgresStore) GetByKeyHash(ctx context.Context, hash string) (*Account, error) {
	return p.scanAccount(p.db.QueryRowContext(ctx, `
		SELECT id, email, key_hash, plan, monthly_quota, used_this_month, usage_month, created_at, updated_at
		FROM accounts WHERE key_hash = $1`, hash))
}

func (p *PostgresStore) Update(ctx context.Context, a *Account) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE accounts SET email = $1, key_hash = $2, plan = $3,
			monthly_quota = $4, used_this_month = $5, usage_month = $6, updated_at = $7
		WHERE id = $8`,
		a.Email, a.KeyHash, string(a.Plan),
		a.MonthlyQuota, a.UsedThisMonth, a.UsageMonth, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// SetUsage writes only the quota fields in a single statement, so a failed
// commit leaves the previous usage intact.
func (p *PostgresStore) SetUsage(ctx context.Context, id string, monthStart time.Time, quota, used int) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE accounts SET usage_month = $1, monthly_quota = $2, used_this_month = $3, updated_at = NOW()
		WHERE id = $4`,
		monthStart, quota, used, id,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (p *PostgresStore) scanAccount(row *sql.Row) (*Account, error) {
	a := &Account{}
	var plan string
	err := row.Scan(&a.ID, &a.Email, &a.KeyHash, &plan,
		&a.MonthlyQuota, &a.UsedThisMonth, &a.UsageMonth, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Plan = Plan(plan)
	a.UsageMonth = a.UsageMonth.UTC()
	return a, nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Migrate creates the accounts table (used in dev/test; prod uses migration files).
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL UNIQUE,
			key_hash        TEXT NOT NULL UNIQUE,
			plan            TEXT NOT NULL DEFAULT 'free',
			monthly_quota   INTEGER NOT NULL DEFAULT 100,
			used_this_month INTEGER NOT NULL DEFAULT 0,
			usage_month     DATE NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_accounts_key_hash ON accounts(key_hash);
		CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
