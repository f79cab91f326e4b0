package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ReconciliationUseCase repairs the one state where the ledger invariant is
// temporarily broken: balances moved but an entry append failed. It retries
// pending ledger writes with exponential backoff and can verify that an
// account's balance matches its latest ledger entry.
type ReconciliationUseCase struct {
	accounts AccountStore
	ledger   LedgerStore
	journal  *PendingJournal
	logger   zerolog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(accounts AccountStore, ledger LedgerStore, journal *PendingJournal, logger zerolog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accounts: accounts,
		ledger:   ledger,
		journal:  journal,
		logger:   logger,
	}
}

// RetryPendingEntries retries every pending ledger write until it succeeds
// or the backoff budget is exhausted. Entries that land are removed from the
// journal; the rest stay for the next run.
func (uc *ReconciliationUseCase) RetryPendingEntries(ctx context.Context) (int, error) {
	pending := uc.journal.Snapshot()
	if len(pending) == 0 {
		return 0, nil
	}

	written := 0

	for _, entry := range pending {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 100 * time.Millisecond
		b.MaxInterval = 2 * time.Second
		b.MaxElapsedTime = 30 * time.Second

		err := backoff.Retry(func() error {
			_, err := uc.ledger.Append(ctx, entry)
			return err
		}, backoff.WithContext(b, ctx))
		if err != nil {
			uc.logger.Error().
				Err(err).
				Str("account_id", entry.AccountID).
				Str("kind", string(entry.Kind)).
				Msg("pending ledger entry still failing")

			return written, fmt.Errorf("retrying pending entry for %s: %w", entry.AccountID, err)
		}

		uc.journal.Remove(entry)
		written++

		uc.logger.Info().
			Str("account_id", entry.AccountID).
			Str("kind", string(entry.Kind)).
			Msg("pending ledger entry written")
	}

	return written, nil
}

// AccountConsistency is the result of comparing an account balance with its
// latest ledger entry.
type AccountConsistency struct {
	AccountID      string
	Balance        string
	ClosingBalance string
	Consistent     bool
	CheckedAt      time.Time
}

// CheckAccount verifies that the account balance equals the closing balance
// of its most recent ledger entry. A pending journal entry for the account
// counts as inconsistent until it lands.
func (uc *ReconciliationUseCase) CheckAccount(ctx context.Context, accountID string) (*AccountConsistency, error) {
	account, err := uc.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := &AccountConsistency{
		AccountID: accountID,
		Balance:   account.Balance.String(),
		CheckedAt: time.Now().UTC(),
	}

	for _, pending := range uc.journal.Snapshot() {
		if pending.AccountID == accountID {
			result.ClosingBalance = pending.ClosingBalance.String()
			result.Consistent = false

			return result, nil
		}
	}

	entries, err := uc.ledger.ListByAccount(ctx, accountID, 1, 0)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		// No history yet: consistent if nothing was ever debited/credited.
		result.Consistent = true
		return result, nil
	}

	result.ClosingBalance = entries[0].ClosingBalance.String()
	result.Consistent = entries[0].ClosingBalance.Equal(account.Balance)

	return result, nil
}
