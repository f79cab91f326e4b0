package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/corebank/internal/adapter/http/dto"
	"github.com/iho/corebank/internal/infrastructure/metrics"
	"github.com/iho/corebank/internal/usecase"
)

// AuthHandler handles login requests.
type AuthHandler struct {
	authUC  *usecase.AuthUseCase
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authUC *usecase.AuthUseCase, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authUC: authUC, metrics: m}
}

// Login authenticates an account holder and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	token, account, err := h.authUC.Login(r.Context(), req.AccountID, req.PIN)
	if err != nil {
		if h.metrics != nil {
			h.metrics.AuthAttempts.WithLabelValues("failure").Inc()
		}

		writeError(w, mapDomainError(err), "login failed", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.AuthAttempts.WithLabelValues("success").Inc()
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     token,
		AccountID: account.ID,
		Type:      string(account.Type),
	})
}
