package usecase

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/corebank/internal/domain"
)

// AuthUseCase authenticates account holders by account number and PIN.
// The transfer core trusts its result and never re-validates identity.
type AuthUseCase struct {
	accounts AccountStore
	tokens   TokenIssuer
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(accounts AccountStore, tokens TokenIssuer) *AuthUseCase {
	return &AuthUseCase{
		accounts: accounts,
		tokens:   tokens,
	}
}

// Login verifies the PIN for an account and issues a session token.
// Unknown accounts and wrong PINs return the same error so callers cannot
// probe for valid account numbers.
func (uc *AuthUseCase) Login(ctx context.Context, accountID, pin string) (string, *domain.Account, error) {
	account, err := uc.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}

		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PINHash), []byte(pin)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Generate(account)
	if err != nil {
		return "", nil, err
	}

	return token, account, nil
}
