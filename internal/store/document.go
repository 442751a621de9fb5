package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
)

// DocumentStore defines the interface for document persistence.
type DocumentStore interface {
	// Create saves a new document row. The document's body is stored
	// separately via CreateVersion; creating a document and its first
	// version atomically requires a transaction:
	//
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       txStore := docStore.WithTx(tx)
	//       if err := txStore.Create(ctx, doc); err != nil {
	//           return err
	//       }
	//       return txStore.CreateVersion(ctx, version)
	//   })
	//
	// Returns validation errors if the document data is invalid and
	// ErrDuplicate if the ID already exists.
	Create(ctx context.Context, doc *domain.Document) error

	// CreateVersion saves a new document version. Returns ErrInvalidEntity
	// if the referenced document does not exist and ErrDuplicate if the
	// version number is already taken for this document.
	CreateVersion(ctx context.Context, version *domain.DocumentVersion) error

	// GetByID retrieves a document by its unique ID.
	// Returns ErrDocumentNotFound if the document does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)

	// GetVersions retrieves up to limit versions of a document, newest
	// first. A limit of 0 retrieves all versions. Returns an empty slice
	// when the document has no versions.
	GetVersions(ctx context.Context, documentID uuid.UUID, limit int) ([]*domain.DocumentVersion, error)

	// UpdateLatestVersion bumps the document's latest version number and
	// refreshes its updated timestamp. Returns ErrDocumentNotFound if the
	// document does not exist.
	UpdateLatestVersion(ctx context.Context, id uuid.UUID, latestVersion int) error

	// WithTx returns a DocumentStore bound to the provided transaction.
	// The transaction is created and managed by the caller, typically via
	// RunInTransaction.
	WithTx(tx *sql.Tx) DocumentStore
}
