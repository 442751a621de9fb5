package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mverity/docvault-api/internal/api/shared"
	"github.com/mverity/docvault-api/internal/operation"
)

// OperationHandler serves the kind-agnostic operation endpoints.
type OperationHandler struct {
	statuses *operation.Store
	queue    TaskQueue
	logger   *slog.Logger
}

// NewOperationHandler creates an OperationHandler.
func NewOperationHandler(statuses *operation.Store, queue TaskQueue, logger *slog.Logger) *OperationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationHandler{
		statuses: statuses,
		queue:    queue,
		logger:   logger.With(slog.String("handler", "operation")),
	}
}

// Cancel handles POST /api/operations/{operationID}/cancel. Cancellation is
// a request, not a guarantee: the executor observes it at its next await
// point, so the caller keeps polling until the record turns terminal.
// Canceling an already finished operation is a no-op that still returns 202.
func (h *OperationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")

	rec, ok := h.statuses.TryGet(operationID)
	if !ok {
		shared.RespondWithError(w, r, http.StatusNotFound, "Operation not found")
		return
	}

	canceled := h.queue.Cancel(operationID)
	h.logger.Info("cancellation requested",
		"operation_id", operationID,
		"kind", rec.RecordKind(),
		"signaled", canceled)

	shared.RespondWithJSON(w, r, http.StatusAccepted, AcceptedResponse{
		OperationID: operationID,
		ProgressURL: progressURLFor(rec),
	})
}

func progressURLFor(rec operation.Record) string {
	switch r := rec.(type) {
	case *operation.ImportStatus:
		return r.ProgressURL
	case *operation.ComparisonStatus:
		return r.ProgressURL
	default:
		return ""
	}
}
