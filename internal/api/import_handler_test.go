package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/platform/metrics"
	"github.com/mverity/docvault-api/internal/task"
)

const testMaxUpload = int64(8 << 20)

func newImportHandler(statuses *operation.Store, queue TaskQueue) *ImportHandler {
	return NewImportHandler(statuses, queue, mockImporter{}, nil, testMaxUpload, discardLogger())
}

func TestBulkImportAccepted(t *testing.T) {
	statuses := newStatusStore()
	queue := &mockQueue{}
	handler := newImportHandler(statuses, queue)

	body, contentType := multipartBody(t, map[string]string{
		"a.md":  "# A\n\nalpha",
		"b.txt": "beta",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New())

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp AcceptedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OperationID)
	assert.Equal(t, "/api/import/progress/"+resp.OperationID, resp.ProgressURL)

	// The record is pollable as Queued before any work runs.
	rec, ok := statuses.TryGet(resp.OperationID)
	require.True(t, ok)
	imp := rec.(*operation.ImportStatus)
	assert.Equal(t, operation.StateQueued, imp.RecordState())
	assert.Equal(t, 2, imp.TotalFiles)

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.OperationID, queue.enqueued[0].OperationID())
	assert.Equal(t, operation.KindImport, queue.enqueued[0].Kind())
}

func TestBulkImportRequiresAuth(t *testing.T) {
	handler := newImportHandler(newStatusStore(), &mockQueue{})

	body, contentType := multipartBody(t, map[string]string{"a.txt": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBulkImportNoFiles(t *testing.T) {
	handler := newImportHandler(newStatusStore(), &mockQueue{})

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New())

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkImportNotMultipart(t *testing.T) {
	handler := newImportHandler(newStatusStore(), &mockQueue{})

	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req = withUser(req, uuid.New())

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkImportQueueFull(t *testing.T) {
	statuses := newStatusStore()
	handler := newImportHandler(statuses, &mockQueue{enqueueErr: task.ErrQueueFull})

	body, contentType := multipartBody(t, map[string]string{"a.txt": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New())

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	// The seeded record was removed: pollers never see an operation that
	// will not run.
	assert.Equal(t, 0, statuses.Len())
}

func TestBulkImportQueueFullClosesMetricsLifecycle(t *testing.T) {
	statuses := newStatusStore()
	emitter := events.NewInMemoryEventEmitter(discardLogger())
	m := metrics.New(prometheus.NewRegistry())
	emitter.RegisterHandler(m)
	handler := NewImportHandler(statuses, &mockQueue{enqueueErr: task.ErrQueueFull},
		mockImporter{}, emitter, testMaxUpload, discardLogger())

	body, contentType := multipartBody(t, map[string]string{"a.txt": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New())

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, 0, statuses.Len())

	// The Queued event went out before Enqueue, so the rejection must emit
	// a terminal event too: the in-flight gauge returns to zero.
	kind := string(operation.KindImport)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OperationsInFlight.WithLabelValues(kind)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues(kind, string(operation.StateFailed))))
}

func TestBulkImportClientDisconnected(t *testing.T) {
	statuses := newStatusStore()
	queue := &mockQueue{}
	handler := newImportHandler(statuses, queue)

	body, contentType := multipartBody(t, map[string]string{"a.txt": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/import", body)
	req.Header.Set("Content-Type", contentType)
	req = withUser(req, uuid.New())

	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)

	rr := serve(http.MethodPost, "/api/import", handler.BulkImport, req)
	assert.Equal(t, StatusClientClosedRequest, rr.Code)
	assert.Empty(t, queue.enqueued, "no dead work is queued for a gone client")
	assert.Equal(t, 0, statuses.Len())
}

func TestImportProgress(t *testing.T) {
	statuses := newStatusStore()
	handler := newImportHandler(statuses, &mockQueue{})

	record := operation.NewImportStatus("op-1", "/api/import/progress/op-1", 3)
	record.Advance(operation.StateProcessing)
	record.SetPercent(33)
	record.AdvanceFile()
	statuses.Set("op-1", record)

	req := httptest.NewRequest(http.MethodGet, "/api/import/progress/op-1", nil)
	rr := serve(http.MethodGet, "/api/import/progress/{operationID}", handler.Progress, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got operation.ImportStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "op-1", got.ID)
	assert.Equal(t, operation.StateProcessing, got.State)
	assert.Equal(t, 33, got.PercentComplete)
	assert.Equal(t, 1, got.CurrentFile)
	assert.Equal(t, 3, got.TotalFiles)
}

func TestImportProgressNotFound(t *testing.T) {
	statuses := newStatusStore()
	handler := newImportHandler(statuses, &mockQueue{})

	req := httptest.NewRequest(http.MethodGet, "/api/import/progress/unknown", nil)
	rr := serve(http.MethodGet, "/api/import/progress/{operationID}", handler.Progress, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestImportProgressWrongKindIs404(t *testing.T) {
	statuses := newStatusStore()
	handler := newImportHandler(statuses, &mockQueue{})

	// A comparison operation polled through the import endpoint must look
	// exactly like a missing one.
	statuses.Set("op-cmp", operation.NewComparisonStatus("op-cmp", "/p", uuid.New()))

	req := httptest.NewRequest(http.MethodGet, "/api/import/progress/op-cmp", nil)
	rr := serve(http.MethodGet, "/api/import/progress/{operationID}", handler.Progress, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
