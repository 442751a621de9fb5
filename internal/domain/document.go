package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Document and DocumentVersion.
var (
	ErrEmptyDocumentID      = errors.New("document ID cannot be empty")
	ErrEmptyDocumentOwnerID = errors.New("document owner ID cannot be empty")
	ErrEmptyDocumentTitle   = errors.New("document title cannot be empty")
	ErrEmptyVersionBody     = errors.New("document version body cannot be empty")
	ErrInvalidVersionNumber = errors.New("document version number must be positive")
)

// Document represents a single document in the workspace. The body text
// lives in DocumentVersion rows; the document row tracks metadata and the
// number of the most recent version.
type Document struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Title         string    `json:"title"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	WordCount     int       `json:"word_count"`
	LatestVersion int       `json:"latest_version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewDocument creates a Document with a fresh ID and timestamps, at version 1.
// Returns an error if validation fails.
func NewDocument(ownerID uuid.UUID, title, fileName, contentType string, wordCount int) (*Document, error) {
	now := time.Now().UTC()
	doc := &Document{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Title:         title,
		FileName:      fileName,
		ContentType:   contentType,
		WordCount:     wordCount,
		LatestVersion: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks if the Document has valid data.
func (d *Document) Validate() error {
	if d.ID == uuid.Nil {
		return ErrEmptyDocumentID
	}
	if d.OwnerID == uuid.Nil {
		return ErrEmptyDocumentOwnerID
	}
	if d.Title == "" {
		return ErrEmptyDocumentTitle
	}
	if d.LatestVersion < 1 {
		return ErrInvalidVersionNumber
	}
	return nil
}

// DocumentVersion is one immutable revision of a document's body text.
type DocumentVersion struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewDocumentVersion creates a version for the given document.
// Returns an error if validation fails.
func NewDocumentVersion(documentID uuid.UUID, versionNumber int, body string) (*DocumentVersion, error) {
	v := &DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    documentID,
		VersionNumber: versionNumber,
		Body:          body,
		CreatedAt:     time.Now().UTC(),
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}

	return v, nil
}

// Validate checks if the DocumentVersion has valid data.
func (v *DocumentVersion) Validate() error {
	if v.ID == uuid.Nil {
		return ErrEmptyDocumentID
	}
	if v.DocumentID == uuid.Nil {
		return ErrEmptyDocumentID
	}
	if v.VersionNumber < 1 {
		return ErrInvalidVersionNumber
	}
	if v.Body == "" {
		return ErrEmptyVersionBody
	}
	return nil
}
