package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the direction of a ledger entry.
type EntryKind string

const (
	EntryKindDebit  EntryKind = "debit"
	EntryKindCredit EntryKind = "credit"
)

// IsValid checks if the kind is one of the two known directions.
func (k EntryKind) IsValid() bool {
	return k == EntryKindDebit || k == EntryKindCredit
}

// Entry is a single immutable ledger record. IDs are assigned by the
// ledger store from a strictly increasing sequence, so entries for an
// account are totally ordered by ID. ClosingBalance is the account balance
// immediately after the mutation this entry records.
type Entry struct {
	ID             int64
	AccountID      string
	Kind           EntryKind
	Amount         decimal.Decimal
	Description    string
	ClosingBalance decimal.Decimal
	CreatedAt      time.Time
}
