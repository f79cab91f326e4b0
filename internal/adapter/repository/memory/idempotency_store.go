package memory

import (
	"context"
	"sync"
	"time"
)

// IdempotencyStore is an in-memory usecase.IdempotencyStore for tests and
// single-process deployments. Expiry is checked lazily on access.
type IdempotencyStore struct {
	mu     sync.Mutex
	values map[string]idempotencyRecord
}

type idempotencyRecord struct {
	value     []byte
	expiresAt time.Time
}

// NewIdempotencyStore creates an empty in-memory idempotency store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		values: make(map[string]idempotencyRecord),
	}
}

// CheckAndSet atomically checks if key exists, sets if not.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.values[key]; ok && time.Now().Before(rec.expiresAt) {
		return true, rec.value, nil
	}

	value := response
	if value == nil {
		value = []byte("processing")
	}

	s.values[key] = idempotencyRecord{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}

	return false, nil, nil
}

// Update updates an existing key with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = idempotencyRecord{
		value:     response,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Delete releases a key.
func (s *IdempotencyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}
