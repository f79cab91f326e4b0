package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
)

// AccountStore is the in-memory reference implementation of
// usecase.AccountStore. Reads return copies so callers can never alias
// internal state; the conditional update is atomic under a single mutex.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountStore creates an empty in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}

	cp := *account
	s.accounts[account.ID] = &cp

	return nil
}

// GetAccount returns a snapshot copy of the account.
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	cp := *account

	return &cp, nil
}

// Exists reports whether the account is known.
func (s *AccountStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[id]

	return ok, nil
}

// ConditionalUpdateBalance writes newBalance only if the stored version
// still equals expectedVersion. The check and the write happen under one
// lock, so the update never partially applies.
func (s *AccountStore) ConditionalUpdateBalance(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}

	if account.Version != expectedVersion {
		return 0, domain.ErrConcurrencyConflict
	}

	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = updatedAt

	return account.Version, nil
}
