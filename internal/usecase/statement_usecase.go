package usecase

import (
	"context"

	"github.com/iho/corebank/internal/domain"
)

// StatementUseCase handles ledger history reads.
type StatementUseCase struct {
	accounts AccountStore
	ledger   LedgerStore
}

// NewStatementUseCase creates a new StatementUseCase.
func NewStatementUseCase(accounts AccountStore, ledger LedgerStore) *StatementUseCase {
	return &StatementUseCase{
		accounts: accounts,
		ledger:   ledger,
	}
}

// MiniStatementInput represents input for listing ledger entries.
type MiniStatementInput struct {
	AccountID string
	Limit     int
	Offset    int
}

// MiniStatement lists ledger entries for an account, most recent first.
// The listing is restartable: repeated calls are always consistent with the
// current store state.
func (uc *StatementUseCase) MiniStatement(ctx context.Context, input MiniStatementInput) ([]*domain.Entry, error) {
	ok, err := uc.accounts.Exists(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.ledger.ListByAccount(ctx, input.AccountID, limit, offset)
}
