package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/iho/corebank/internal/adapter/http/dto"
	"github.com/iho/corebank/internal/adapter/http/middleware"
	"github.com/iho/corebank/internal/domain"
	"github.com/iho/corebank/internal/infrastructure/metrics"
	"github.com/iho/corebank/internal/usecase"
)

// IdempotencyKeyHeader carries the caller-supplied idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

// TransferHandler handles transfer HTTP requests.
type TransferHandler struct {
	coordinator *usecase.TransferCoordinator
	metrics     *metrics.Metrics
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(coordinator *usecase.TransferCoordinator, m *metrics.Metrics) *TransferHandler {
	return &TransferHandler{coordinator: coordinator, metrics: m}
}

// Create executes a transfer from the authenticated holder's account.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	sourceID, ok := middleware.SessionAccountID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing session", "")
		return
	}

	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(sourceID, r.Header.Get(IdempotencyKeyHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	start := time.Now()

	result, err := h.coordinator.Transfer(r.Context(), input)

	if h.metrics != nil {
		h.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		// Balances already moved; report the partial state, not a plain error.
		if errors.Is(err, domain.ErrLedgerWriteFailed) && result != nil {
			h.countError(err)
			writeJSON(w, http.StatusAccepted, dto.TransferFromResult(result))

			return
		}

		h.countError(err)
		writeError(w, mapDomainError(err), "transfer failed", err.Error())

		return
	}

	if h.metrics != nil {
		h.metrics.TransfersCompleted.Inc()
		amount, _ := input.Amount.Float64()
		h.metrics.TransferAmount.Observe(amount)
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromResult(result))
}

func (h *TransferHandler) countError(err error) {
	if h.metrics == nil {
		return
	}

	h.metrics.TransferErrors.WithLabelValues(errorType(err)).Inc()

	if errors.Is(err, domain.ErrLockTimeout) {
		h.metrics.LockTimeouts.Inc()
	}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrAmountTooLarge):
		return "validation"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, domain.ErrLedgerWriteFailed):
		return "ledger_write_failed"
	case errors.Is(err, domain.ErrIrrecoverable):
		return "irrecoverable"
	case errors.Is(err, domain.ErrDuplicateInFlight):
		return "duplicate_in_flight"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
