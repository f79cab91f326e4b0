package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/iho/corebank/internal/domain"
)

// ConsistencyGuard serializes balance-affecting operations per account.
// One lock exists per account ID, created lazily and never destroyed.
// Two-account operations acquire both locks in ascending ID order so that
// opposing transfers (A→B and B→A) cannot deadlock.
type ConsistencyGuard struct {
	mu      sync.Mutex
	locks   map[string]chan struct{}
	timeout time.Duration
}

// NewConsistencyGuard creates a guard with the given lock-wait timeout.
// A non-positive timeout falls back to DefaultLockTimeout.
func NewConsistencyGuard(timeout time.Duration) *ConsistencyGuard {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	return &ConsistencyGuard{
		locks:   make(map[string]chan struct{}),
		timeout: timeout,
	}
}

// lockFor returns the lock channel for an account, creating it on first use.
func (g *ConsistencyGuard) lockFor(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		g.locks[id] = l
	}

	return l
}

// acquire takes a single account lock, waiting at most the guard timeout.
func (g *ConsistencyGuard) acquire(ctx context.Context, id string) error {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case g.lockFor(id) <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees a single account lock.
func (g *ConsistencyGuard) release(id string) {
	<-g.lockFor(id)
}

// Acquire locks one account. The returned release function must be called
// exactly once.
func (g *ConsistencyGuard) Acquire(ctx context.Context, id string) (func(), error) {
	if err := g.acquire(ctx, id); err != nil {
		return nil, err
	}

	return func() { g.release(id) }, nil
}

// AcquirePair locks two accounts in ascending ID order, regardless of which
// is source or destination. If the second acquisition fails the first lock
// is released, so a failed call leaves no locks held.
func (g *ConsistencyGuard) AcquirePair(ctx context.Context, a, b string) (func(), error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	if err := g.acquire(ctx, first); err != nil {
		return nil, err
	}

	if err := g.acquire(ctx, second); err != nil {
		g.release(first)
		return nil, err
	}

	return func() {
		g.release(second)
		g.release(first)
	}, nil
}
