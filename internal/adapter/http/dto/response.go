package dto

import (
	"time"

	"github.com/iho/corebank/internal/domain"
	"github.com/iho/corebank/internal/usecase"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LoginResponse is the payload returned by POST /login.
type LoginResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
}

// AccountResponse is the API representation of an account.
type AccountResponse struct {
	ID         string    `json:"id"`
	CustomerID int64     `json:"customer_id"`
	Type       string    `json:"type"`
	Balance    string    `json:"balance"`
	CreatedAt  time.Time `json:"created_at"`
}

// AccountFromDomain converts a domain account.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		CustomerID: a.CustomerID,
		Type:       string(a.Type),
		Balance:    a.Balance.String(),
		CreatedAt:  a.CreatedAt,
	}
}

// BalanceResponse is the payload returned by GET /accounts/{id}/balance.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// TransferResponse is the payload returned by POST /transfers.
type TransferResponse struct {
	TransferID         string `json:"transfer_id"`
	SourceID           string `json:"source_id"`
	DestinationID      string `json:"destination_id"`
	Amount             string `json:"amount"`
	SourceBalance      string `json:"source_balance"`
	DestinationBalance string `json:"destination_balance"`
	State              string `json:"state"`
}

// TransferFromResult converts a transfer result.
func TransferFromResult(r *domain.TransferResult) TransferResponse {
	return TransferResponse{
		TransferID:         r.TransferID,
		SourceID:           r.SourceID,
		DestinationID:      r.DestinationID,
		Amount:             r.Amount.String(),
		SourceBalance:      r.SourceBalance.String(),
		DestinationBalance: r.DestinationBalance.String(),
		State:              string(r.State),
	}
}

// EntryResponse is the API representation of a ledger entry.
type EntryResponse struct {
	ID             int64     `json:"id"`
	AccountID      string    `json:"account_id"`
	Kind           string    `json:"kind"`
	Amount         string    `json:"amount"`
	Description    string    `json:"description"`
	ClosingBalance string    `json:"closing_balance"`
	CreatedAt      time.Time `json:"created_at"`
}

// EntriesFromDomain converts domain entries.
func EntriesFromDomain(entries []*domain.Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:             e.ID,
			AccountID:      e.AccountID,
			Kind:           string(e.Kind),
			Amount:         e.Amount.String(),
			Description:    e.Description,
			ClosingBalance: e.ClosingBalance.String(),
			CreatedAt:      e.CreatedAt,
		})
	}

	return out
}

// ConsistencyResponse is the payload for reconciliation checks.
type ConsistencyResponse struct {
	AccountID      string    `json:"account_id"`
	Balance        string    `json:"balance"`
	ClosingBalance string    `json:"closing_balance,omitempty"`
	Consistent     bool      `json:"consistent"`
	CheckedAt      time.Time `json:"checked_at"`
}

// ConsistencyFromResult converts a reconciliation result.
func ConsistencyFromResult(r *usecase.AccountConsistency) ConsistencyResponse {
	return ConsistencyResponse{
		AccountID:      r.AccountID,
		Balance:        r.Balance,
		ClosingBalance: r.ClosingBalance,
		Consistent:     r.Consistent,
		CheckedAt:      r.CheckedAt,
	}
}
