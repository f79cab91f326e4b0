package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/corebank/internal/adapter/http/dto"
	"github.com/iho/corebank/internal/infrastructure/metrics"
	"github.com/iho/corebank/internal/usecase"
)

// ReconciliationHandler exposes operator endpoints for repairing and
// verifying ledger consistency.
type ReconciliationHandler struct {
	reconciliationUC *usecase.ReconciliationUseCase
	journal          *usecase.PendingJournal
	metrics          *metrics.Metrics
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC *usecase.ReconciliationUseCase, journal *usecase.PendingJournal, m *metrics.Metrics) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationUC: reconciliationUC,
		journal:          journal,
		metrics:          m,
	}
}

// RetryPending retries all pending ledger writes.
func (h *ReconciliationHandler) RetryPending(w http.ResponseWriter, r *http.Request) {
	written, err := h.reconciliationUC.RetryPendingEntries(r.Context())

	if h.metrics != nil {
		h.metrics.LedgerRetries.Add(float64(written))
		h.metrics.LedgerWritesPending.Set(float64(h.journal.Len()))
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "pending ledger writes remain", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"written": written,
		"pending": h.journal.Len(),
	})
}

// CheckAccount verifies an account's balance against its latest ledger entry.
func (h *ReconciliationHandler) CheckAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	result, err := h.reconciliationUC.CheckAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromResult(result))
}
