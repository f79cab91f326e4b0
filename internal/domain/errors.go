package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInsufficientFunds  = errors.New("insufficient funds")

	// Transfer errors
	ErrSameAccount    = errors.New("cannot transfer to same account")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrAmountTooSmall = errors.New("amount below minimum allowed")
	ErrAmountTooLarge = errors.New("amount exceeds maximum allowed")

	// Concurrency and store errors
	ErrConcurrencyConflict = errors.New("balance version conflict")
	ErrLockTimeout         = errors.New("timed out waiting for account lock")
	ErrLedgerWriteFailed   = errors.New("ledger write failed after balance mutation")
	ErrIrrecoverable       = errors.New("compensation failed, manual reconciliation required")
	ErrStoreUnavailable    = errors.New("account store unavailable")

	// Idempotency errors
	ErrDuplicateInFlight = errors.New("a transfer with this idempotency key is in progress")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid account number or PIN")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
)
