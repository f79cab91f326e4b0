package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
	"github.com/iho/corebank/internal/usecase"
	"github.com/iho/corebank/internal/usecase/mocks"
)

type coordinatorFixture struct {
	accounts *mocks.MockAccountStore
	ledger   *mocks.MockLedgerStore
	idem     *mocks.MockIdempotencyStore
	journal  *usecase.PendingJournal
	coord    *usecase.TransferCoordinator
}

func newCoordinatorFixture(t *testing.T) *coordinatorFixture {
	t.Helper()

	f := &coordinatorFixture{
		accounts: mocks.NewMockAccountStore(),
		ledger:   mocks.NewMockLedgerStore(),
		idem:     mocks.NewMockIdempotencyStore(),
		journal:  usecase.NewPendingJournal(),
	}

	f.coord = usecase.NewTransferCoordinator(
		f.accounts,
		f.ledger,
		usecase.NewConsistencyGuard(time.Second),
		f.idem,
		mocks.NewMockIDGenerator(),
		f.journal,
		zerolog.Nop(),
	)

	return f
}

func (f *coordinatorFixture) seed(id string, balance int64) {
	f.accounts.Seed(&domain.Account{
		ID:      id,
		Type:    domain.AccountTypeChecking,
		Balance: decimal.NewFromInt(balance),
	})
}

func (f *coordinatorFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	acc, err := f.accounts.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to read account %s: %v", id, err)
	}

	return acc.Balance
}

func TestTransferCoordinatorSuccessfulTransfer(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	result, err := f.coord.Transfer(context.Background(), usecase.TransferInput{
		SourceID:      "acc-a",
		DestinationID: "acc-b",
		Amount:        decimal.NewFromInt(30),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.State != domain.TransferStateLedgerRecorded {
		t.Errorf("expected state %s, got %s", domain.TransferStateLedgerRecorded, result.State)
	}
	if !result.SourceBalance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected source balance 70, got %s", result.SourceBalance)
	}
	if !result.DestinationBalance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected destination balance 80, got %s", result.DestinationBalance)
	}

	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(70)) {
		t.Errorf("stored source balance wrong: %s", f.balance(t, "acc-a"))
	}
	if !f.balance(t, "acc-b").Equal(decimal.NewFromInt(80)) {
		t.Errorf("stored destination balance wrong: %s", f.balance(t, "acc-b"))
	}

	entries := f.ledger.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}

	debit, credit := entries[0], entries[1]
	if debit.Kind != domain.EntryKindDebit || debit.AccountID != "acc-a" {
		t.Errorf("first entry should be the source debit, got %+v", debit)
	}
	if debit.Description != "Transfer to acc-b" {
		t.Errorf("unexpected debit description: %q", debit.Description)
	}
	if !debit.ClosingBalance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected debit closing balance 70, got %s", debit.ClosingBalance)
	}
	if credit.Kind != domain.EntryKindCredit || credit.AccountID != "acc-b" {
		t.Errorf("second entry should be the destination credit, got %+v", credit)
	}
	if credit.Description != "Transfer from acc-a" {
		t.Errorf("unexpected credit description: %q", credit.Description)
	}
	if !credit.ClosingBalance.Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected credit closing balance 80, got %s", credit.ClosingBalance)
	}
	if !debit.Amount.Equal(credit.Amount) {
		t.Errorf("entry amounts differ: %s vs %s", debit.Amount, credit.Amount)
	}
}

func TestTransferCoordinatorRejections(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.TransferInput
		wantErr error
	}{
		{
			name: "insufficient funds",
			input: usecase.TransferInput{
				SourceID:      "acc-a",
				DestinationID: "acc-b",
				Amount:        decimal.NewFromInt(50),
			},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name: "same account",
			input: usecase.TransferInput{
				SourceID:      "acc-a",
				DestinationID: "acc-a",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "zero amount",
			input: usecase.TransferInput{
				SourceID:      "acc-a",
				DestinationID: "acc-b",
				Amount:        decimal.Zero,
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "nonexistent destination",
			input: usecase.TransferInput{
				SourceID:      "acc-a",
				DestinationID: "acc-nope",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "nonexistent source",
			input: usecase.TransferInput{
				SourceID:      "acc-nope",
				DestinationID: "acc-b",
				Amount:        decimal.NewFromInt(10),
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCoordinatorFixture(t)
			f.seed("acc-a", 20)
			f.seed("acc-b", 50)

			result, err := f.coord.Transfer(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if result != nil {
				t.Errorf("expected nil result, got %+v", result)
			}

			// Rejections are side-effect free.
			if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(20)) {
				t.Errorf("source balance changed: %s", f.balance(t, "acc-a"))
			}
			if !f.balance(t, "acc-b").Equal(decimal.NewFromInt(50)) {
				t.Errorf("destination balance changed: %s", f.balance(t, "acc-b"))
			}
			if len(f.ledger.All()) != 0 {
				t.Errorf("expected no ledger entries, got %d", len(f.ledger.All()))
			}
		})
	}
}

func TestTransferCoordinatorDoubleSpendRace(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 0)
	f.seed("acc-c", 0)

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		rejected  atomic.Int32
	)

	wg.Add(2)

	// Two concurrent 60s against a balance of 100: exactly one may win.
	for _, dest := range []string{"acc-b", "acc-c"} {
		go func() {
			defer wg.Done()

			_, err := f.coord.Transfer(context.Background(), usecase.TransferInput{
				SourceID:      "acc-a",
				DestinationID: dest,
				Amount:        decimal.NewFromInt(60),
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if successes.Load() != 1 || rejected.Load() != 1 {
		t.Fatalf("expected exactly one success and one rejection, got %d/%d", successes.Load(), rejected.Load())
	}

	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected source balance 40, got %s", f.balance(t, "acc-a"))
	}

	sum := f.balance(t, "acc-a").Add(f.balance(t, "acc-b")).Add(f.balance(t, "acc-c"))
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("money not conserved: expected total 100, got %s", sum)
	}
}

func TestTransferCoordinatorConservationUnderConcurrency(t *testing.T) {
	f := newCoordinatorFixture(t)

	ids := []string{"acc-1", "acc-2", "acc-3", "acc-4"}
	for _, id := range ids {
		f.seed(id, 1000)
	}
	total := decimal.NewFromInt(4000)

	var wg sync.WaitGroup

	const workers = 8
	const transfersPerWorker = 25

	wg.Add(workers)

	for w := range workers {
		go func() {
			defer wg.Done()

			for i := range transfersPerWorker {
				src := ids[(w+i)%len(ids)]
				dst := ids[(w+i+1)%len(ids)]

				_, err := f.coord.Transfer(context.Background(), usecase.TransferInput{
					SourceID:      src,
					DestinationID: dst,
					Amount:        decimal.NewFromInt(int64(1 + i%7)),
				})
				if err != nil && !errors.Is(err, domain.ErrInsufficientFunds) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}

	wg.Wait()

	sum := decimal.Zero
	for _, id := range ids {
		balance := f.balance(t, id)
		if balance.IsNegative() {
			t.Errorf("account %s went negative: %s", id, balance)
		}
		sum = sum.Add(balance)
	}

	if !sum.Equal(total) {
		t.Fatalf("money not conserved: expected total %s, got %s", total, sum)
	}

	// Every completed transfer produced a balanced debit/credit pair.
	entries := f.ledger.All()
	if len(entries)%2 != 0 {
		t.Fatalf("expected an even number of ledger entries, got %d", len(entries))
	}
}

// passthroughCAS runs the mock's default conditional update from inside an
// override. Safe while the coordinator holds both account locks.
func passthroughCAS(m *mocks.MockAccountStore, ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error) {
	fn := m.ConditionalUpdateBalanceFunc
	m.ConditionalUpdateBalanceFunc = nil
	v, err := m.ConditionalUpdateBalance(ctx, id, expectedVersion, newBalance, updatedAt)
	m.ConditionalUpdateBalanceFunc = fn

	return v, err
}

func TestTransferCoordinatorCompensation(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	// Fail the destination credit; everything else passes through.
	f.accounts.ConditionalUpdateBalanceFunc = func(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error) {
		if id == "acc-b" {
			return 0, fmt.Errorf("connection reset")
		}

		return passthroughCAS(f.accounts, ctx, id, expectedVersion, newBalance, updatedAt)
	}

	result, err := f.coord.Transfer(context.Background(), usecase.TransferInput{
		SourceID:      "acc-a",
		DestinationID: "acc-b",
		Amount:        decimal.NewFromInt(30),
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}

	f.accounts.ConditionalUpdateBalanceFunc = nil

	// The debit must have been rolled back.
	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected source restored to 100, got %s", f.balance(t, "acc-a"))
	}
	if !f.balance(t, "acc-b").Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected destination unchanged at 50, got %s", f.balance(t, "acc-b"))
	}
	if len(f.ledger.All()) != 0 {
		t.Errorf("expected no ledger entries after compensation, got %d", len(f.ledger.All()))
	}
}

func TestTransferCoordinatorIrrecoverable(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	// The debit succeeds, then both the credit and the compensating
	// reversal fail.
	casCalls := 0
	f.accounts.ConditionalUpdateBalanceFunc = func(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error) {
		casCalls++
		if casCalls > 1 {
			return 0, fmt.Errorf("store down")
		}

		return passthroughCAS(f.accounts, ctx, id, expectedVersion, newBalance, updatedAt)
	}

	_, err := f.coord.Transfer(context.Background(), usecase.TransferInput{
		SourceID:      "acc-a",
		DestinationID: "acc-b",
		Amount:        decimal.NewFromInt(30),
	})
	if !errors.Is(err, domain.ErrIrrecoverable) {
		t.Fatalf("expected ErrIrrecoverable, got %v", err)
	}
}

func TestTransferCoordinatorLedgerWritePending(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	f.ledger.AppendFunc = func(ctx context.Context, entry *domain.Entry) (int64, error) {
		return 0, fmt.Errorf("ledger unavailable")
	}

	result, err := f.coord.Transfer(context.Background(), usecase.TransferInput{
		SourceID:      "acc-a",
		DestinationID: "acc-b",
		Amount:        decimal.NewFromInt(30),
	})
	if !errors.Is(err, domain.ErrLedgerWriteFailed) {
		t.Fatalf("expected ErrLedgerWriteFailed, got %v", err)
	}
	if result == nil {
		t.Fatal("expected a result alongside ErrLedgerWriteFailed")
	}
	if result.State != domain.TransferStateLedgerWritePending {
		t.Errorf("expected state %s, got %s", domain.TransferStateLedgerWritePending, result.State)
	}

	// Balances are already correct.
	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected source balance 70, got %s", f.balance(t, "acc-a"))
	}
	if !f.balance(t, "acc-b").Equal(decimal.NewFromInt(80)) {
		t.Errorf("expected destination balance 80, got %s", f.balance(t, "acc-b"))
	}

	// Both entries are queued for retry, debit first.
	pending := f.journal.Snapshot()
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].Kind != domain.EntryKindDebit || pending[1].Kind != domain.EntryKindCredit {
		t.Errorf("expected debit then credit, got %s then %s", pending[0].Kind, pending[1].Kind)
	}

	// Once the store recovers, reconciliation drains the journal.
	f.ledger.AppendFunc = nil

	recon := usecase.NewReconciliationUseCase(f.accounts, f.ledger, f.journal, zerolog.Nop())
	written, err := recon.RetryPendingEntries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if written != 2 {
		t.Errorf("expected 2 entries written, got %d", written)
	}
	if f.journal.Len() != 0 {
		t.Errorf("expected empty journal, got %d", f.journal.Len())
	}
	if len(f.ledger.All()) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(f.ledger.All()))
	}
}

func TestTransferCoordinatorIdempotentReplay(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	input := usecase.TransferInput{
		SourceID:       "acc-a",
		DestinationID:  "acc-b",
		Amount:         decimal.NewFromInt(30),
		IdempotencyKey: "key-1",
	}

	first, err := f.coord.Transfer(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.coord.Transfer(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if second.TransferID != first.TransferID {
		t.Errorf("replay returned a different transfer: %s vs %s", second.TransferID, first.TransferID)
	}
	if !second.SourceBalance.Equal(first.SourceBalance) {
		t.Errorf("replay returned a different source balance: %s vs %s", second.SourceBalance, first.SourceBalance)
	}

	// The transfer executed exactly once.
	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(70)) {
		t.Errorf("expected source balance 70 after replay, got %s", f.balance(t, "acc-a"))
	}
	if len(f.ledger.All()) != 2 {
		t.Errorf("expected 2 ledger entries after replay, got %d", len(f.ledger.All()))
	}
}

func TestTransferCoordinatorDuplicateInFlight(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	// Simulate an in-flight duplicate: the key is reserved but no result
	// has been recorded yet.
	_, _, err := f.idem.CheckAndSet(context.Background(), "key-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.coord.Transfer(context.Background(), usecase.TransferInput{
		SourceID:       "acc-a",
		DestinationID:  "acc-b",
		Amount:         decimal.NewFromInt(30),
		IdempotencyKey: "key-1",
	})
	if !errors.Is(err, domain.ErrDuplicateInFlight) {
		t.Fatalf("expected ErrDuplicateInFlight, got %v", err)
	}

	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance changed on duplicate, got %s", f.balance(t, "acc-a"))
	}
}

func TestTransferCoordinatorRejectionClearsReservation(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 20)
	f.seed("acc-b", 50)

	input := usecase.TransferInput{
		SourceID:       "acc-a",
		DestinationID:  "acc-b",
		Amount:         decimal.NewFromInt(50),
		IdempotencyKey: "key-1",
	}

	if _, err := f.coord.Transfer(context.Background(), input); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// A retry with the same key after topping up must go through, not be
	// treated as a duplicate.
	f.accounts.Seed(&domain.Account{
		ID:      "acc-a",
		Type:    domain.AccountTypeChecking,
		Balance: decimal.NewFromInt(100),
	})

	result, err := f.coord.Transfer(context.Background(), input)
	if err != nil {
		t.Fatalf("retry after rejection failed: %v", err)
	}
	if result.State != domain.TransferStateLedgerRecorded {
		t.Errorf("expected completed transfer, got %s", result.State)
	}
}

func TestTransferCoordinatorLockTimeout(t *testing.T) {
	f := newCoordinatorFixture(t)
	f.seed("acc-a", 100)
	f.seed("acc-b", 50)

	guard := usecase.NewConsistencyGuard(50 * time.Millisecond)
	coord := usecase.NewTransferCoordinator(
		f.accounts,
		f.ledger,
		guard,
		f.idem,
		mocks.NewMockIDGenerator(),
		f.journal,
		zerolog.Nop(),
	)

	release, err := guard.Acquire(context.Background(), "acc-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	_, err = coord.Transfer(context.Background(), usecase.TransferInput{
		SourceID:      "acc-a",
		DestinationID: "acc-b",
		Amount:        decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	if !f.balance(t, "acc-a").Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance changed on lock timeout, got %s", f.balance(t, "acc-a"))
	}
}
