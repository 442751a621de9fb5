package api

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/api/middleware"
	"github.com/mverity/docvault-api/internal/api/shared"
	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/service/bulkimport"
	"github.com/mverity/docvault-api/internal/task"
)

// TaskQueue is the slice of the runner the handlers need.
// Satisfied by *task.Runner.
type TaskQueue interface {
	Enqueue(t task.Task) error
	Cancel(operationID string) bool
}

// ImportHandler serves the bulk import submission and progress endpoints.
type ImportHandler struct {
	statuses       *operation.Store
	queue          TaskQueue
	importer       task.Importer
	emitter        events.EventEmitter
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewImportHandler creates an ImportHandler.
func NewImportHandler(
	statuses *operation.Store,
	queue TaskQueue,
	importer task.Importer,
	emitter events.EventEmitter,
	maxUploadBytes int64,
	logger *slog.Logger,
) *ImportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportHandler{
		statuses:       statuses,
		queue:          queue,
		importer:       importer,
		emitter:        emitter,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "import")),
	}
}

// BulkImport handles POST /api/import. It stages the uploaded files, seeds a
// Queued record, enqueues the executor and returns 202 immediately. The
// heavy work never runs on the request goroutine.
func (h *ImportHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart request", err)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(bulkimport.ErrNoFiles))
		return
	}

	uploads := make([]bulkimport.Upload, 0, len(fileHeaders))
	opened := make([]multipart.File, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart request", err)
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, bulkimport.Upload{Name: fh.Filename, Data: f})
	}

	staged, err := bulkimport.Stage(uploads)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to process uploaded files", err)
		return
	}

	// Staging can take a while on large uploads. If the client is gone by
	// now, do not queue dead work.
	if err := r.Context().Err(); err != nil {
		_ = staged.Cleanup()
		shared.RespondWithErrorAndLog(w, r, StatusClientClosedRequest,
			GetSafeErrorMessage(err), err)
		return
	}

	operationID := uuid.New().String()
	progressURL := "/api/import/progress/" + operationID
	record := operation.NewImportStatus(operationID, progressURL, len(staged.Files))
	h.statuses.Set(operationID, record)
	if h.emitter != nil {
		_ = h.emitter.EmitEvent(r.Context(), events.NewOperationEvent(record))
	}

	importTask := task.NewImportTask(record, staged, userID, h.importer, h.statuses, h.emitter, h.logger)
	if err := h.queue.Enqueue(importTask); err != nil {
		// Undo the seed so pollers never see an operation that will not run.
		// The Queued event already went out, so close the lifecycle with a
		// terminal one or downstream consumers count this as still in flight.
		h.statuses.Remove(operationID)
		record.MarkFailed(GetSafeErrorMessage(err))
		if h.emitter != nil {
			_ = h.emitter.EmitEvent(r.Context(), events.NewOperationEvent(record))
		}
		_ = staged.Cleanup()
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("bulk import accepted",
		"operation_id", operationID,
		"file_count", len(staged.Files),
		"user_id", userID.String())

	shared.RespondWithJSON(w, r, http.StatusAccepted, AcceptedResponse{
		OperationID: operationID,
		ProgressURL: progressURL,
	})
}

// Progress handles GET /api/import/progress/{operationID}. Unknown, evicted
// and wrong-kind identifiers are indistinguishable: all return 404.
func (h *ImportHandler) Progress(w http.ResponseWriter, r *http.Request) {
	operationID := chi.URLParam(r, "operationID")

	rec, ok := h.statuses.TryGet(operationID)
	if !ok || rec.RecordKind() != operation.KindImport {
		shared.RespondWithError(w, r, http.StatusNotFound, "Operation not found")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, rec)
}
