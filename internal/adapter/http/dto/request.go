package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/corebank/internal/domain"
	"github.com/iho/corebank/internal/usecase"
)

// LoginRequest is the payload for POST /login.
type LoginRequest struct {
	AccountID string `json:"account_id"`
	PIN       string `json:"pin"`
}

// OpenAccountRequest is the payload for POST /accounts.
type OpenAccountRequest struct {
	ID             string `json:"id,omitempty"`
	CustomerID     int64  `json:"customer_id"`
	Type           string `json:"type"`
	OpeningBalance string `json:"opening_balance"`
	PIN            string `json:"pin"`
}

// ToUseCaseInput converts the request to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() (usecase.OpenAccountInput, error) {
	balance := decimal.Zero

	if r.OpeningBalance != "" {
		var err error
		balance, err = decimal.NewFromString(r.OpeningBalance)
		if err != nil {
			return usecase.OpenAccountInput{}, err
		}
	}

	return usecase.OpenAccountInput{
		ID:             r.ID,
		CustomerID:     r.CustomerID,
		Type:           domain.AccountType(r.Type),
		OpeningBalance: balance,
		PIN:            r.PIN,
	}, nil
}

// CreateTransferRequest is the payload for POST /transfers.
type CreateTransferRequest struct {
	DestinationID string `json:"destination_id"`
	Amount        string `json:"amount"`
}

// ToUseCaseInput converts the request to use case input. The source account
// and idempotency key come from the session and header, not the body.
func (r *CreateTransferRequest) ToUseCaseInput(sourceID, idempotencyKey string) (usecase.TransferInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		SourceID:       sourceID,
		DestinationID:  r.DestinationID,
		Amount:         amount,
		IdempotencyKey: idempotencyKey,
	}, nil
}
