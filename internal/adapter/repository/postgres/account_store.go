package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
)

// AccountStore implements usecase.AccountStore on PostgreSQL. The
// conditional update is a single-row compare-and-swap on the version
// column; no multi-row transaction is required.
type AccountStore struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{
		pool:    pool,
		retrier: NewRetrier(),
	}
}

// Create creates a new account.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	const q = `
		INSERT INTO accounts (id, customer_id, account_type, balance, version, pin_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, q,
		account.ID,
		account.CustomerID,
		string(account.Type),
		decimalToNumeric(account.Balance),
		account.Version,
		account.PINHash,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetAccount retrieves an account by ID.
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	const q = `
		SELECT id, customer_id, account_type, balance, version, pin_hash, created_at, updated_at
		FROM accounts WHERE id = $1`

	var (
		account   domain.Account
		accType   string
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	err := s.pool.QueryRow(ctx, q, id).Scan(
		&account.ID,
		&account.CustomerID,
		&accType,
		&balance,
		&account.Version,
		&account.PINHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Type = domain.AccountType(accType)
	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

// Exists reports whether the account is known.
func (s *AccountStore) Exists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// ConditionalUpdateBalance writes newBalance only if the stored version
// still equals expectedVersion. The UPDATE row-locks the account, so the
// version check and the write are atomic.
func (s *AccountStore) ConditionalUpdateBalance(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error) {
	const q = `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
		RETURNING version`

	var newVersion int64

	err := s.retrier.Retry(ctx, func() error {
		return s.pool.QueryRow(ctx, q,
			decimalToNumeric(newBalance),
			timeToPgTimestamptz(updatedAt),
			id,
			expectedVersion,
		).Scan(&newVersion)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row matched: either the account is gone or the version moved.
			exists, exErr := s.Exists(ctx, id)
			if exErr != nil {
				return 0, exErr
			}
			if !exists {
				return 0, domain.ErrAccountNotFound
			}

			return 0, domain.ErrConcurrencyConflict
		}

		return 0, err
	}

	return newVersion, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
