package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/api/shared"
	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/store"
	"github.com/mverity/docvault-api/internal/task"
)

// ComparisonHandler serves the comparison submission and progress endpoints.
type ComparisonHandler struct {
	statuses *operation.Store
	queue    TaskQueue
	comparer task.Comparer
	docStore store.DocumentStore
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewComparisonHandler creates a ComparisonHandler.
func NewComparisonHandler(
	statuses *operation.Store,
	queue TaskQueue,
	comparer task.Comparer,
	docStore store.DocumentStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) *ComparisonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComparisonHandler{
		statuses: statuses,
		queue:    queue,
		comparer: comparer,
		docStore: docStore,
		emitter:  emitter,
		logger:   logger.With(slog.String("handler", "comparison")),
	}
}

// Analyze handles POST /api/comparison/analysis/{documentID}. The document
// must exist before the operation is accepted; whether it has enough
// versions to compare is the executor's problem and surfaces through the
// progress endpoint.
func (h *ComparisonHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid document ID")
		return
	}

	if _, err := h.docStore.GetByID(r.Context(), documentID); err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, GetSafeErrorMessage(err))
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to look up document", err)
		return
	}

	if err := r.Context().Err(); err != nil {
		shared.RespondWithErrorAndLog(w, r, StatusClientClosedRequest,
			GetSafeErrorMessage(err), err)
		return
	}

	operationID := uuid.New().String()
	progressURL := "/api/comparison/progress/" + operationID
	record := operation.NewComparisonStatus(operationID, progressURL, documentID)
	h.statuses.Set(operationID, record)
	if h.emitter != nil {
		_ = h.emitter.EmitEvent(r.Context(), events.NewOperationEvent(record))
	}

	// Snapshot before Enqueue; once a worker picks the task up the live
	// record belongs to the executor.
	seeded := record.Clone()

	comparisonTask := task.NewComparisonTask(record, h.comparer, h.statuses, h.emitter, h.logger)
	if err := h.queue.Enqueue(comparisonTask); err != nil {
		// Undo the seed and close the lifecycle with a terminal event so
		// downstream consumers do not count this as still in flight.
		h.statuses.Remove(operationID)
		record.MarkFailed(GetSafeErrorMessage(err))
		if h.emitter != nil {
			_ = h.emitter.EmitEvent(r.Context(), events.NewOperationEvent(record))
		}
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("comparison accepted",
		"operation_id", operationID,
		"document_id", documentID.String())

	shared.RespondWithJSON(w, r, http.StatusAccepted, seeded)
}

// Progress handles GET /api/comparison/progress/{operationID}.
func (h *ComparisonHandler) Progress(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")

	rec, ok := h.statuses.TryGet(operationID)
	if !ok || rec.RecordKind() != operation.KindComparison {
		shared.RespondWithError(w, r, http.StatusNotFound, "Operation not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}
