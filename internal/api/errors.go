package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/mverity/docvault-api/internal/service/auth"
	"github.com/mverity/docvault-api/internal/service/bulkimport"
	"github.com/mverity/docvault-api/internal/service/comparison"
	"github.com/mverity/docvault-api/internal/store"
	"github.com/mverity/docvault-api/internal/task"
)

// StatusClientClosedRequest is the non-standard status code (nginx
// convention) reported when the client disconnects during a synchronous
// submission step, before any work is queued.
const StatusClientClosedRequest = 499

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Client disconnected mid-submission
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrDocumentNotFound),
		errors.Is(err, store.ErrVersionNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, comparison.ErrNotEnoughVersions):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, bulkimport.ErrNoFiles),
		errors.Is(err, bulkimport.ErrUnsupportedFormat),
		errors.Is(err, bulkimport.ErrEmptyFile):
		return http.StatusBadRequest

	// Backpressure
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrRunnerStopped):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, context.Canceled):
		return "Client closed request"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, store.ErrDocumentNotFound):
		return "Document not found"

	case errors.Is(err, store.ErrVersionNotFound):
		return "Document version not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, comparison.ErrNotEnoughVersions),
		errors.Is(err, bulkimport.ErrNoFiles),
		errors.Is(err, bulkimport.ErrUnsupportedFormat),
		errors.Is(err, bulkimport.ErrEmptyFile):
		// These carry messages written for clients.
		return err.Error()

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrRunnerStopped):
		return "Server is busy, try again later"

	default:
		return "An unexpected error occurred"
	}
}
