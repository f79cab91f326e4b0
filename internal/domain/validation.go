package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	// MinTransferAmount is the smallest currency unit that can move.
	MinTransferAmount = "0.01"

	// MaxTransferAmount caps a single transfer.
	MaxTransferAmount = "1000000000000" // 1 trillion

	MinPINLength = 4
	MaxPINLength = 8
)

var (
	minTransferAmount = decimal.RequireFromString(MinTransferAmount)
	maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)
)

// ValidateAmount validates a transfer amount against the minimum granularity
// and the maximum single-transfer cap.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.LessThan(minTransferAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinTransferAmount)
	}

	if amount.GreaterThan(maxTransferAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidatePIN validates a raw PIN before hashing.
func ValidatePIN(pin string) error {
	if len(pin) < MinPINLength || len(pin) > MaxPINLength {
		return fmt.Errorf("%w: PIN must be %d-%d digits", ErrInvalidCredentials, MinPINLength, MaxPINLength)
	}

	for _, c := range pin {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: PIN must be numeric", ErrInvalidCredentials)
		}
	}

	return nil
}

// ValidatePagination clamps pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
