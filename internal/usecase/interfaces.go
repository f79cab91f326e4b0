package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
)

// AccountStore defines data access for accounts. It is the only component
// allowed to mutate balances, and its single mutation primitive is the
// conditional update below.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error

	// GetAccount returns a snapshot of the account. The snapshot may be
	// stale under concurrency; callers that mutate must re-read while
	// holding the account lock.
	GetAccount(ctx context.Context, id string) (*domain.Account, error)

	Exists(ctx context.Context, id string) (bool, error)

	// ConditionalUpdateBalance writes newBalance only if the stored version
	// still equals expectedVersion, atomically incrementing the version.
	// It returns the new version on success, domain.ErrConcurrencyConflict
	// on a version mismatch, and domain.ErrAccountNotFound for an unknown
	// account. It never partially applies.
	ConditionalUpdateBalance(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error)
}

// LedgerStore defines data access for the append-only ledger.
type LedgerStore interface {
	// Append stores the entry and returns its assigned ID. IDs come from a
	// strictly increasing global sequence.
	Append(ctx context.Context, entry *domain.Entry) (int64, error)

	// ListByAccount returns entries for an account, most recent first.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error). Passing a nil response
	// reserves the key with a placeholder.
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)

	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error

	// Delete releases a key so the request can be retried.
	Delete(ctx context.Context, key string) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// TokenIssuer issues session tokens for authenticated accounts.
type TokenIssuer interface {
	Generate(account *domain.Account) (string, error)
}
