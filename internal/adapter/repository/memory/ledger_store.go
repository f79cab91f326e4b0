package memory

import (
	"context"
	"sync"

	"github.com/iho/corebank/internal/domain"
)

// LedgerStore is the in-memory reference implementation of
// usecase.LedgerStore. IDs come from a single increasing sequence; entries
// are immutable once appended.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []*domain.Entry
	nextID  int64
}

// NewLedgerStore creates an empty in-memory ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// Append stores the entry and returns its assigned ID.
func (s *LedgerStore) Append(ctx context.Context, entry *domain.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++

	cp := *entry
	cp.ID = s.nextID
	s.entries = append(s.entries, &cp)

	return cp.ID, nil
}

// ListByAccount returns entries for an account, most recent first.
func (s *LedgerStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*domain.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].AccountID == accountID {
			cp := *s.entries[i]
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
