package domain

import (
	"github.com/shopspring/decimal"
)

// Transfer represents a requested money movement between two accounts.
// It is transient: its effects live only in Account and Entry state.
type Transfer struct {
	SourceID       string
	DestinationID  string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// Validate validates the transfer request. It has no side effects.
func (t *Transfer) Validate() error {
	if t.SourceID == "" || t.DestinationID == "" {
		return ErrAccountNotFound
	}

	if t.SourceID == t.DestinationID {
		return ErrSameAccount
	}

	return ValidateAmount(t.Amount)
}

// TransferState is a terminal state of a transfer attempt.
type TransferState string

const (
	// TransferStateLedgerRecorded means both balances moved and both ledger
	// entries were appended. Terminal success.
	TransferStateLedgerRecorded TransferState = "ledger_recorded"

	// TransferStateCompensated means the source debit was reversed after the
	// destination credit failed. No net mutation remains.
	TransferStateCompensated TransferState = "compensated"

	// TransferStateLedgerWritePending means both balances moved but one or
	// both ledger entries are still missing. Balances are correct; the
	// missing entries must be retried until they land.
	TransferStateLedgerWritePending TransferState = "ledger_write_pending"
)

// TransferResult is the outcome of a completed transfer attempt.
type TransferResult struct {
	TransferID         string          `json:"transfer_id"`
	SourceID           string          `json:"source_id"`
	DestinationID      string          `json:"destination_id"`
	Amount             decimal.Decimal `json:"amount"`
	SourceBalance      decimal.Decimal `json:"source_balance"`
	DestinationBalance decimal.Decimal `json:"destination_balance"`
	State              TransferState   `json:"state"`
}
