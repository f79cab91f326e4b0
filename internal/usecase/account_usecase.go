package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/iho/corebank/internal/domain"
)

// AccountUseCase handles account opening and balance reads.
type AccountUseCase struct {
	accounts AccountStore
	idGen    IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accounts AccountStore, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accounts: accounts,
		idGen:    idGen,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	ID             string // optional, generated when empty
	CustomerID     int64
	Type           domain.AccountType
	OpeningBalance decimal.Decimal
	PIN            string
}

// OpenAccount creates a new account with a hashed PIN.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAccountType, input.Type)
	}

	if input.OpeningBalance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	if err := domain.ValidatePIN(input.PIN); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.PIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing PIN: %w", err)
	}

	id := input.ID
	if id == "" {
		id = uc.idGen.Generate()
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:         id,
		CustomerID: input.CustomerID,
		Type:       input.Type,
		Balance:    input.OpeningBalance,
		Version:    0,
		PINHash:    string(hash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accounts.GetAccount(ctx, id)
}

// GetBalance returns the current balance of an account. The read is a
// snapshot and may be stale under concurrent transfers.
func (uc *AccountUseCase) GetBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	account, err := uc.accounts.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}
