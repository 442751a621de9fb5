package api

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mverity/docvault-api/internal/api/shared"
	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/service/bulkimport"
	"github.com/mverity/docvault-api/internal/store"
	"github.com/mverity/docvault-api/internal/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStatusStore() *operation.Store {
	return operation.NewStore(time.Minute, nil)
}

// mockQueue captures enqueued tasks instead of running them.
type mockQueue struct {
	enqueued     []task.Task
	enqueueErr   error
	canceled     []string
	cancelResult bool
}

func (q *mockQueue) Enqueue(t task.Task) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.enqueued = append(q.enqueued, t)
	return nil
}

func (q *mockQueue) Cancel(operationID string) bool {
	q.canceled = append(q.canceled, operationID)
	return q.cancelResult
}

// mockImporter satisfies task.Importer for submission tests; the handler
// never invokes it synchronously.
type mockImporter struct{}

func (mockImporter) ProcessFiles(_ context.Context, _ []bulkimport.StagedFile, _ uuid.UUID, _ bulkimport.Callbacks) ([]domain.ImportResult, error) {
	return nil, nil
}

// mockComparer satisfies task.Comparer for submission tests.
type mockComparer struct{}

func (mockComparer) GenerateComparison(_ context.Context, _ uuid.UUID) (*domain.ComparisonResult, error) {
	return nil, nil
}

// mockDocStore serves the synchronous document lookups handlers perform.
type mockDocStore struct {
	store.DocumentStore

	doc    *domain.Document
	getErr error

	createdVersions []*domain.DocumentVersion
	latestUpdates   []int
}

func (m *mockDocStore) GetByID(_ context.Context, _ uuid.UUID) (*domain.Document, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	// Copy so handler mutations never leak back into the fixture.
	doc := *m.doc
	return &doc, nil
}

func (m *mockDocStore) CreateVersion(_ context.Context, v *domain.DocumentVersion) error {
	m.createdVersions = append(m.createdVersions, v)
	return nil
}

func (m *mockDocStore) UpdateLatestVersion(_ context.Context, _ uuid.UUID, latest int) error {
	m.latestUpdates = append(m.latestUpdates, latest)
	return nil
}

func (m *mockDocStore) WithTx(_ *sql.Tx) store.DocumentStore { return m }

// withUser stamps an authenticated user onto the request, the way the auth
// middleware does.
func withUser(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
	return r.WithContext(ctx)
}

// multipartBody builds a multipart request body with one part per file under
// the "files" field.
func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// serve routes the request through a chi router so URL params resolve.
func serve(method, pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Method(method, pattern, handler)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
