package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/corebank/internal/adapter/http/dto"
	"github.com/iho/corebank/internal/adapter/http/middleware"
	"github.com/iho/corebank/internal/usecase"
)

// StatementHandler handles ledger history HTTP requests.
type StatementHandler struct {
	statementUC *usecase.StatementUseCase
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(statementUC *usecase.StatementUseCase) *StatementHandler {
	return &StatementHandler{statementUC: statementUC}
}

// MiniStatement lists ledger entries for the authenticated holder's
// account, most recent first.
func (h *StatementHandler) MiniStatement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	if !middleware.SessionOwns(r.Context(), id) {
		writeError(w, http.StatusForbidden, "account does not belong to session", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.statementUC.MiniStatement(r.Context(), usecase.MiniStatementInput{
		AccountID: id,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
