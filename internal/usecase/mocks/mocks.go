package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
)

// MockAccountStore is a mock implementation of usecase.AccountStore.
// Without overrides it behaves as a correct in-memory store: snapshot
// reads return copies and conditional updates are atomic.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc                   func(ctx context.Context, account *domain.Account) error
	GetAccountFunc               func(ctx context.Context, id string) (*domain.Account, error)
	ExistsFunc                   func(ctx context.Context, id string) (bool, error)
	ConditionalUpdateBalanceFunc func(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error)
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed inserts an account directly, bypassing any override.
func (m *MockAccountStore) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; ok {
		return domain.ErrAccountExists
	}
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MockAccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *MockAccountStore) Exists(ctx context.Context, id string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[id]
	return ok, nil
}

func (m *MockAccountStore) ConditionalUpdateBalance(ctx context.Context, id string, expectedVersion int64, newBalance decimal.Decimal, updatedAt time.Time) (int64, error) {
	if m.ConditionalUpdateBalanceFunc != nil {
		return m.ConditionalUpdateBalanceFunc(ctx, id, expectedVersion, newBalance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return 0, domain.ErrConcurrencyConflict
	}
	acc.Balance = newBalance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return acc.Version, nil
}

// MockLedgerStore is a mock implementation of usecase.LedgerStore.
type MockLedgerStore struct {
	mu      sync.RWMutex
	entries []*domain.Entry
	nextID  int64

	AppendFunc        func(ctx context.Context, entry *domain.Entry) (int64, error)
	ListByAccountFunc func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
}

func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{}
}

func (m *MockLedgerStore) Append(ctx context.Context, entry *domain.Entry) (int64, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cp := *entry
	cp.ID = m.nextID
	m.entries = append(m.entries, &cp)
	entry.ID = m.nextID
	return m.nextID, nil
}

func (m *MockLedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*domain.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].AccountID == accountID {
			cp := *m.entries[i]
			matched = append(matched, &cp)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// All returns every appended entry in append order.
func (m *MockLedgerStore) All() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MockIdempotencyStore is a mock implementation of usecase.IdempotencyStore.
type MockIdempotencyStore struct {
	mu     sync.Mutex
	values map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	DeleteFunc      func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		values: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.values[key]; ok {
		return true, existing, nil
	}
	if response == nil {
		m.values[key] = []byte("processing")
	} else {
		m.values[key] = response
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = response
	return nil
}

func (m *MockIdempotencyStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// MockIDGenerator is a mock implementation of usecase.IDGenerator.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return fmt.Sprintf("id-%d", m.counter.Add(1))
}

// MockTokenIssuer is a mock implementation of usecase.TokenIssuer.
type MockTokenIssuer struct {
	GenerateFunc func(account *domain.Account) (string, error)
}

func NewMockTokenIssuer() *MockTokenIssuer {
	return &MockTokenIssuer{}
}

func (m *MockTokenIssuer) Generate(account *domain.Account) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(account)
	}
	return "token-" + account.ID, nil
}
