package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/store"
)

func newDocumentHandler(docStore *mockDocStore) *DocumentHandler {
	h := NewDocumentHandler(nil, docStore, discardLogger())
	// Bypass the real database transaction in tests.
	h.runTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	return h
}

func testDocument(ownerID uuid.UUID) *domain.Document {
	return &domain.Document{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Title:         "Launch Plan",
		FileName:      "launch-plan.md",
		ContentType:   "text/markdown",
		WordCount:     120,
		LatestVersion: 1,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestGetDocument(t *testing.T) {
	ownerID := uuid.New()
	doc := testDocument(ownerID)
	handler := newDocumentHandler(&mockDocStore{doc: doc})

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+doc.ID.String(), nil)
	req = withUser(req, ownerID)
	rr := serve(http.MethodGet, "/api/documents/{documentID}", handler.Get, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got domain.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "Launch Plan", got.Title)
}

func TestGetDocumentNotOwned(t *testing.T) {
	doc := testDocument(uuid.New())
	handler := newDocumentHandler(&mockDocStore{doc: doc})

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+doc.ID.String(), nil)
	req = withUser(req, uuid.New())
	rr := serve(http.MethodGet, "/api/documents/{documentID}", handler.Get, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetDocumentNotFound(t *testing.T) {
	handler := newDocumentHandler(&mockDocStore{getErr: store.ErrDocumentNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+uuid.NewString(), nil)
	req = withUser(req, uuid.New())
	rr := serve(http.MethodGet, "/api/documents/{documentID}", handler.Get, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetDocumentInvalidID(t *testing.T) {
	handler := newDocumentHandler(&mockDocStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/documents/not-a-uuid", nil)
	req = withUser(req, uuid.New())
	rr := serve(http.MethodGet, "/api/documents/{documentID}", handler.Get, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateDocumentAddsVersion(t *testing.T) {
	ownerID := uuid.New()
	doc := testDocument(ownerID)
	doc.LatestVersion = 3
	docStore := &mockDocStore{doc: doc}
	handler := newDocumentHandler(docStore)

	body := `{"body": "revised content for the next round"}`
	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID.String(), strings.NewReader(body))
	req = withUser(req, ownerID)
	rr := serve(http.MethodPut, "/api/documents/{documentID}", handler.Update, req)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, docStore.createdVersions, 1)
	assert.Equal(t, doc.ID, docStore.createdVersions[0].DocumentID)
	assert.Equal(t, 4, docStore.createdVersions[0].VersionNumber)
	assert.Equal(t, []int{4}, docStore.latestUpdates)

	var got domain.Document
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 4, got.LatestVersion)
}

func TestUpdateDocumentEmptyBody(t *testing.T) {
	ownerID := uuid.New()
	doc := testDocument(ownerID)
	docStore := &mockDocStore{doc: doc}
	handler := newDocumentHandler(docStore)

	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID.String(), strings.NewReader(`{"body": ""}`))
	req = withUser(req, ownerID)
	rr := serve(http.MethodPut, "/api/documents/{documentID}", handler.Update, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, docStore.createdVersions)
}

func TestUpdateDocumentInvalidJSON(t *testing.T) {
	ownerID := uuid.New()
	doc := testDocument(ownerID)
	handler := newDocumentHandler(&mockDocStore{doc: doc})

	req := httptest.NewRequest(http.MethodPut, "/api/documents/"+doc.ID.String(), strings.NewReader("{"))
	req = withUser(req, ownerID)
	rr := serve(http.MethodPut, "/api/documents/{documentID}", handler.Update, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
