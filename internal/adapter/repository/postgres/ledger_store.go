package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/corebank/internal/domain"
)

// LedgerStore implements usecase.LedgerStore on PostgreSQL. Entry IDs come
// from a bigserial sequence, so they are strictly increasing store-wide.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Append stores the entry and returns its assigned ID.
func (s *LedgerStore) Append(ctx context.Context, entry *domain.Entry) (int64, error) {
	const q = `
		INSERT INTO ledger_entries (account_id, kind, amount, description, closing_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64

	err := s.pool.QueryRow(ctx, q,
		entry.AccountID,
		string(entry.Kind),
		decimalToNumeric(entry.Amount),
		entry.Description,
		decimalToNumeric(entry.ClosingBalance),
		timeToPgTimestamptz(entry.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	entry.ID = id

	return id, nil
}

// ListByAccount returns entries for an account, most recent first.
func (s *LedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	const q = `
		SELECT id, account_id, kind, amount, description, closing_balance, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, q, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry

	for rows.Next() {
		var (
			entry          domain.Entry
			kind           string
			amount         pgtype.Numeric
			closingBalance pgtype.Numeric
			createdAt      pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&kind,
			&amount,
			&entry.Description,
			&closingBalance,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Kind = domain.EntryKind(kind)
		entry.Amount = numericToDecimal(amount)
		entry.ClosingBalance = numericToDecimal(closingBalance)
		entry.CreatedAt = createdAt.Time

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
