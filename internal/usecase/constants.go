package usecase

import "time"

const (
	// DefaultLockTimeout bounds the wait for a per-account lock. Exceeding
	// it fails the transfer instead of blocking forever.
	DefaultLockTimeout = 5 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	idempotencyPlaceholder = "processing"
)
