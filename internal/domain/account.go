package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the product type of an account.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
	AccountTypeCurrent  AccountType = "current"
)

var validAccountTypes = map[AccountType]bool{
	AccountTypeSavings:  true,
	AccountTypeChecking: true,
	AccountTypeCurrent:  true,
}

// IsValid checks if the account type is a known type.
func (t AccountType) IsValid() bool {
	return validAccountTypes[t]
}

// Account represents a monetary account owned by a customer.
// Balance is never negative at any observable point. Version increases by
// exactly one on every successful balance mutation and is the token used
// for conditional updates.
type Account struct {
	ID         string
	CustomerID int64
	Type       AccountType
	Balance    decimal.Decimal
	Version    int64
	PINHash    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateDebit checks if the account balance covers a debit of amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit of amount.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit of amount.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
