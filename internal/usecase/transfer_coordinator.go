package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
)

// TransferCoordinator orchestrates a fund transfer as one logically
// indivisible operation: validate, lock both accounts in a fixed order,
// debit, credit, append the ledger pair. It never mutates balances directly,
// only through the AccountStore's conditional-update contract, and it owns
// the compensation logic for the case where the credit fails after the
// debit committed.
type TransferCoordinator struct {
	accounts AccountStore
	ledger   LedgerStore
	guard    *ConsistencyGuard
	idem     IdempotencyStore
	idGen    IDGenerator
	journal  *PendingJournal
	logger   zerolog.Logger
}

// NewTransferCoordinator creates a new TransferCoordinator. The idempotency
// store may be nil, in which case idempotency keys are ignored.
func NewTransferCoordinator(
	accounts AccountStore,
	ledger LedgerStore,
	guard *ConsistencyGuard,
	idem IdempotencyStore,
	idGen IDGenerator,
	journal *PendingJournal,
	logger zerolog.Logger,
) *TransferCoordinator {
	return &TransferCoordinator{
		accounts: accounts,
		ledger:   ledger,
		guard:    guard,
		idem:     idem,
		idGen:    idGen,
		journal:  journal,
		logger:   logger,
	}
}

// TransferInput represents a transfer request.
type TransferInput struct {
	SourceID       string
	DestinationID  string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// Transfer moves Amount from the source account to the destination account.
//
// Rejections (invalid amount, same account, unknown account, insufficient
// funds) happen before any mutation and leave no side effects. After the
// source debit commits the operation runs to a terminal state even if the
// caller's context is cancelled: success, compensated rollback, or an
// escalated failure.
//
// On domain.ErrLedgerWriteFailed the returned result is non-nil: both
// balances are already correct and consistent, only ledger entries are
// missing. They are recorded in the pending journal for retry; the caller
// must not retry the transfer itself.
func (c *TransferCoordinator) Transfer(ctx context.Context, input TransferInput) (*domain.TransferResult, error) {
	transfer := &domain.Transfer{
		SourceID:       input.SourceID,
		DestinationID:  input.DestinationID,
		Amount:         input.Amount,
		IdempotencyKey: input.IdempotencyKey,
	}

	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	reserved, replay, err := c.reserveIdempotencyKey(ctx, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if replay != nil {
		return replay, nil
	}

	// Pre-filter only; the authoritative read happens inside the lock.
	ok, err := c.accounts.Exists(ctx, input.DestinationID)
	if err != nil {
		c.clearReservation(ctx, reserved)
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if !ok {
		c.clearReservation(ctx, reserved)
		return nil, fmt.Errorf("destination %s: %w", input.DestinationID, domain.ErrAccountNotFound)
	}

	release, err := c.guard.AcquirePair(ctx, input.SourceID, input.DestinationID)
	if err != nil {
		c.clearReservation(ctx, reserved)
		return nil, err
	}
	defer release()

	result, err := c.execute(ctx, input)
	if err != nil && (result == nil || result.State != domain.TransferStateLedgerWritePending) {
		if !errors.Is(err, domain.ErrIrrecoverable) {
			c.clearReservation(ctx, reserved)
		}

		return nil, err
	}

	// Record the result before the lock is released so a concurrent
	// duplicate observes the completed transfer.
	c.recordResult(ctx, reserved, result)

	return result, err
}

// execute runs the read-modify-write sequence. Both account locks are held.
func (c *TransferCoordinator) execute(ctx context.Context, input TransferInput) (*domain.TransferResult, error) {
	source, err := c.accounts.GetAccount(ctx, input.SourceID)
	if err != nil {
		return nil, sourceReadError(input.SourceID, err)
	}

	dest, err := c.accounts.GetAccount(ctx, input.DestinationID)
	if err != nil {
		return nil, sourceReadError(input.DestinationID, err)
	}

	if err := source.ValidateDebit(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newSourceBalance := source.ApplyDebit(input.Amount)

	sourceVersion, err := c.accounts.ConditionalUpdateBalance(ctx, source.ID, source.Version, newSourceBalance, now)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			// Should not happen while both locks are held.
			c.logger.Error().
				Str("account_id", source.ID).
				Int64("expected_version", source.Version).
				Msg("version conflict inside critical section, lock discipline violated")

			return nil, err
		}

		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	// The debit has committed. From here the operation runs to a terminal
	// state regardless of caller cancellation.
	dctx := context.WithoutCancel(ctx)

	newDestBalance := dest.ApplyCredit(input.Amount)

	_, err = c.accounts.ConditionalUpdateBalance(dctx, dest.ID, dest.Version, newDestBalance, now)
	if err != nil {
		return nil, c.compensate(dctx, source, sourceVersion, input.Amount, err)
	}

	debitEntry := &domain.Entry{
		AccountID:      source.ID,
		Kind:           domain.EntryKindDebit,
		Amount:         input.Amount,
		Description:    "Transfer to " + dest.ID,
		ClosingBalance: newSourceBalance,
		CreatedAt:      now,
	}
	creditEntry := &domain.Entry{
		AccountID:      dest.ID,
		Kind:           domain.EntryKindCredit,
		Amount:         input.Amount,
		Description:    "Transfer from " + source.ID,
		ClosingBalance: newDestBalance,
		CreatedAt:      now,
	}

	result := &domain.TransferResult{
		TransferID:         c.idGen.Generate(),
		SourceID:           source.ID,
		DestinationID:      dest.ID,
		Amount:             input.Amount,
		SourceBalance:      newSourceBalance,
		DestinationBalance: newDestBalance,
		State:              domain.TransferStateLedgerRecorded,
	}

	var pending []*domain.Entry
	for _, entry := range []*domain.Entry{debitEntry, creditEntry} {
		if len(pending) > 0 {
			// Preserve entry ordering: once one append failed, queue the
			// rest behind it instead of writing out of order.
			pending = append(pending, entry)
			continue
		}

		if _, err := c.ledger.Append(dctx, entry); err != nil {
			c.logger.Warn().
				Err(err).
				Str("account_id", entry.AccountID).
				Str("kind", string(entry.Kind)).
				Msg("ledger append failed, entry queued for retry")

			pending = append(pending, entry)
		}
	}

	if len(pending) > 0 {
		c.journal.Record(pending...)
		result.State = domain.TransferStateLedgerWritePending

		return result, fmt.Errorf("%d entries pending: %w", len(pending), domain.ErrLedgerWriteFailed)
	}

	return result, nil
}

// compensate reverses a committed source debit after the destination credit
// failed. If the reversal itself fails the condition is escalated as
// irrecoverable with enough state to be diagnosed by an operator.
func (c *TransferCoordinator) compensate(ctx context.Context, source *domain.Account, debitVersion int64, amount decimal.Decimal, creditErr error) error {
	if !errors.Is(creditErr, domain.ErrConcurrencyConflict) {
		creditErr = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, creditErr)
	}

	_, err := c.accounts.ConditionalUpdateBalance(ctx, source.ID, debitVersion, source.Balance, time.Now().UTC())
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("source_account_id", source.ID).
			Str("amount", amount.String()).
			Int64("debit_version", debitVersion).
			Str("restore_balance", source.Balance.String()).
			Msg("compensation failed, manual reconciliation required")

		return fmt.Errorf("restoring %s to account %s after failed credit: %v: %w",
			amount.String(), source.ID, err, domain.ErrIrrecoverable)
	}

	c.logger.Warn().
		Str("source_account_id", source.ID).
		Str("amount", amount.String()).
		Msg("destination credit failed, source debit rolled back")

	return fmt.Errorf("destination credit failed, debit rolled back: %w", creditErr)
}

// reserveIdempotencyKey reserves key and returns either the key that was
// reserved (to be completed or cleared by the caller) or a replayed result
// from a previous completed transfer with the same key.
func (c *TransferCoordinator) reserveIdempotencyKey(ctx context.Context, key string) (string, *domain.TransferResult, error) {
	if key == "" || c.idem == nil {
		return "", nil, nil
	}

	exists, cached, err := c.idem.CheckAndSet(ctx, key, nil, IdempotencyKeyTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: idempotency check: %v", domain.ErrStoreUnavailable, err)
	}

	if !exists {
		return key, nil, nil
	}

	if len(cached) == 0 || string(cached) == idempotencyPlaceholder {
		return "", nil, domain.ErrDuplicateInFlight
	}

	var result domain.TransferResult
	if err := json.Unmarshal(cached, &result); err != nil {
		return "", nil, fmt.Errorf("%w: corrupt idempotency record: %v", domain.ErrStoreUnavailable, err)
	}

	return "", &result, nil
}

// recordResult stores the completed result under the reserved key.
func (c *TransferCoordinator) recordResult(ctx context.Context, key string, result *domain.TransferResult) {
	if key == "" || result == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to encode transfer result")
		return
	}

	if err := c.idem.Update(context.WithoutCancel(ctx), key, payload, IdempotencyKeyTTL); err != nil {
		c.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to record idempotency result")
	}
}

// clearReservation releases a reserved key so the request can be retried.
func (c *TransferCoordinator) clearReservation(ctx context.Context, key string) {
	if key == "" {
		return
	}

	if err := c.idem.Delete(context.WithoutCancel(ctx), key); err != nil {
		c.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to clear idempotency reservation")
	}
}

func sourceReadError(id string, err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("account %s: %w", id, domain.ErrAccountNotFound)
	}

	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
