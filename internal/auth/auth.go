// Package auth resolves API credentials to accounts.
//
// Authentication model:
// - Scoring and usage endpoints require an API key issued at provisioning
// - Admin endpoints require the separately configured admin token
// - Raw keys are shown once; only the SHA-256 hash is stored
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mparedes/fraudscore/internal/account"
	"github.com/mparedes/fraudscore/internal/idgen"
)

// Errors
var (
	ErrUnauthorized = errors.New("auth: missing or unknown API key")
	ErrInvalidPlan  = errors.New("auth: unknown plan")
)

const keyPrefix = "sk_"

// Manager issues API keys and resolves them to accounts.
type Manager struct {
	store account.Store
}

// NewManager creates a new auth manager over the account store.
func NewManager(store account.Store) *Manager {
	return &Manager{store: store}
}

// CreateAccount provisions a new account on the given plan and returns it
// together with the raw API key. The raw key is not recoverable afterwards.
func (m *Manager) CreateAccount(ctx context.Context, email string, plan account.Plan) (*account.Account, string, error) {
	if !account.ValidPlan(plan) {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}

	rawKey, err := generateKey()
	if err != nil {
		return nil, "", fmt.Errorf("auth: generate key: %w", err)
	}

	now := time.Now().UTC()
	acct := &account.Account{
		ID:           idgen.WithPrefix("acct_"),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		KeyHash:      HashKey(rawKey),
		Plan:         plan,
		MonthlyQuota: account.QuotaFor(plan),
		UsageMonth:   account.MonthStart(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.store.Create(ctx, acct); err != nil {
		return nil, "", err
	}
	return acct, rawKey, nil
}

// Resolve validates a presented credential and returns its account.
// Blank or unknown keys fail with ErrUnauthorized.
func (m *Manager) Resolve(ctx context.Context, rawKey string) (*account.Account, error) {
	rawKey = strings.TrimPrefix(rawKey, "Bearer ")
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return nil, ErrUnauthorized
	}

	acct, err := m.store.GetByKeyHash(ctx, HashKey(rawKey))
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("auth: lookup key: %w", err)
	}
	return acct, nil
}

// EnsureDemo makes sure a demo account exists for the given well-known key.
// Called at startup when demo access is enabled.
func (m *Manager) EnsureDemo(ctx context.Context, rawKey string) (*account.Account, error) {
	hash := HashKey(rawKey)
	if acct, err := m.store.GetByKeyHash(ctx, hash); err == nil {
		return acct, nil
	} else if !errors.Is(err, account.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	acct := &account.Account{
		ID:           idgen.WithPrefix("acct_"),
		Email:        "demo@localhost",
		KeyHash:      hash,
		Plan:         account.PlanDemo,
		MonthlyQuota: account.QuotaFor(account.PlanDemo),
		UsageMonth:   account.MonthStart(now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.store.Create(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// generateKey returns a fresh raw API key: sk_ plus 32 random bytes in hex
// (256 bits of entropy).
func generateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return keyPrefix + hex.EncodeToString(b), nil
}

// HashKey returns the hex SHA-256 digest stored in place of the raw key.
func HashKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
