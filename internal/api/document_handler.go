package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/api/middleware"
	"github.com/mverity/docvault-api/internal/api/shared"
	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/store"
)

// DocumentHandler serves the synchronous document endpoints. Revising a
// document is what gives the comparison operation something to compare.
type DocumentHandler struct {
	docStore store.DocumentStore
	validate *validator.Validate
	runTx    func(ctx context.Context, fn store.TxFn) error
	logger   *slog.Logger
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(db *sql.DB, docStore store.DocumentStore, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{
		docStore: docStore,
		validate: validator.New(),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
		logger: logger.With(slog.String("handler", "document")),
	}
}

// Get handles GET /api/documents/{documentID}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadOwnedDocument(w, r)
	if !ok {
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}

// Update handles PUT /api/documents/{documentID}: it appends a new version
// with the supplied body and bumps the document's latest version number.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadOwnedDocument(w, r)
	if !ok {
		return
	}

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Document body is required")
		return
	}

	nextVersion := doc.LatestVersion + 1
	version, err := domain.NewDocumentVersion(doc.ID, nextVersion, req.Body)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(store.ErrInvalidEntity))
		return
	}

	err = h.runTx(r.Context(), func(ctx context.Context, tx *sql.Tx) error {
		txStore := h.docStore.WithTx(tx)
		if err := txStore.CreateVersion(ctx, version); err != nil {
			return err
		}
		return txStore.UpdateLatestVersion(ctx, doc.ID, nextVersion)
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	h.logger.Info("document revised",
		"document_id", doc.ID.String(),
		"version", nextVersion)

	doc.LatestVersion = nextVersion
	doc.UpdatedAt = time.Now().UTC()
	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}

// loadOwnedDocument parses the path ID, loads the document and enforces
// ownership. It writes the error response itself and reports success via
// the bool.
func (h *DocumentHandler) loadOwnedDocument(w http.ResponseWriter, r *http.Request) (*domain.Document, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	documentID, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid document ID")
		return nil, false
	}

	doc, err := h.docStore.GetByID(r.Context(), documentID)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, GetSafeErrorMessage(err))
		} else {
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"Failed to look up document", err)
		}
		return nil, false
	}

	if doc.OwnerID != userID {
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not own this document")
		return nil, false
	}

	return doc, true
}
