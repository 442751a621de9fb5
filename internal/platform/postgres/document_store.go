// Package postgres provides PostgreSQL-backed implementations of the
// persistence interfaces defined in the store package.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/platform/logger"
	"github.com/mverity/docvault-api/internal/store"
)

// PostgreSQL error codes.
const (
	pgForeignKeyViolationCode = "23503"
	pgUniqueViolationCode     = "23505"
)

// PostgresDocumentStore implements the store.DocumentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDocumentStore creates a new PostgreSQL implementation of the
// DocumentStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil,
// a default logger will be used.
func NewPostgresDocumentStore(db store.DBTX, logger *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDocumentStore{
		db:     db,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

// Ensure PostgresDocumentStore implements store.DocumentStore.
var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// Create implements store.DocumentStore.Create.
func (s *PostgresDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := doc.Validate(); err != nil {
		log.Warn("document validation failed during create",
			slog.String("error", err.Error()),
			slog.String("document_id", doc.ID.String()))
		return err
	}

	query := `
		INSERT INTO documents (id, owner_id, title, file_name, content_type, word_count, latest_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.FileName,
		doc.ContentType,
		doc.WordCount,
		doc.LatestVersion,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if mapped := mapConstraintError(err, doc.ID); mapped != nil {
			return mapped
		}
		log.Error("failed to create document",
			slog.String("error", err.Error()),
			slog.String("document_id", doc.ID.String()))
		return err
	}

	log.Debug("document created",
		slog.String("document_id", doc.ID.String()),
		slog.String("owner_id", doc.OwnerID.String()))
	return nil
}

// CreateVersion implements store.DocumentStore.CreateVersion.
func (s *PostgresDocumentStore) CreateVersion(ctx context.Context, version *domain.DocumentVersion) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := version.Validate(); err != nil {
		log.Warn("version validation failed during create",
			slog.String("error", err.Error()),
			slog.String("document_id", version.DocumentID.String()))
		return err
	}

	query := `
		INSERT INTO document_versions (id, document_id, version_number, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		version.ID,
		version.DocumentID,
		version.VersionNumber,
		version.Body,
		version.CreatedAt,
	)
	if err != nil {
		if mapped := mapConstraintError(err, version.DocumentID); mapped != nil {
			return mapped
		}
		log.Error("failed to create document version",
			slog.String("error", err.Error()),
			slog.String("document_id", version.DocumentID.String()),
			slog.Int("version_number", version.VersionNumber))
		return err
	}

	log.Debug("document version created",
		slog.String("document_id", version.DocumentID.String()),
		slog.Int("version_number", version.VersionNumber))
	return nil
}

// GetByID implements store.DocumentStore.GetByID.
func (s *PostgresDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, title, file_name, content_type, word_count, latest_version, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	var doc domain.Document
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&doc.FileName,
		&doc.ContentType,
		&doc.WordCount,
		&doc.LatestVersion,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDocumentNotFound
		}
		log.Error("failed to get document",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()))
		return nil, err
	}

	return &doc, nil
}

// GetVersions implements store.DocumentStore.GetVersions.
func (s *PostgresDocumentStore) GetVersions(
	ctx context.Context,
	documentID uuid.UUID,
	limit int,
) ([]*domain.DocumentVersion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, document_id, version_number, body, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`
	args := []any{documentID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query document versions",
			slog.String("error", err.Error()),
			slog.String("document_id", documentID.String()))
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	versions := make([]*domain.DocumentVersion, 0, limit)
	for rows.Next() {
		var v domain.DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.Body, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document version: %w", err)
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return versions, nil
}

// UpdateLatestVersion implements store.DocumentStore.UpdateLatestVersion.
func (s *PostgresDocumentStore) UpdateLatestVersion(ctx context.Context, id uuid.UUID, latestVersion int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE documents
		SET latest_version = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, latestVersion)
	if err != nil {
		log.Error("failed to update latest version",
			slog.String("error", err.Error()),
			slog.String("document_id", id.String()))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrDocumentNotFound
	}

	return nil
}

// WithTx implements store.DocumentStore.WithTx.
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{
		db:     tx,
		logger: s.logger,
	}
}

// mapConstraintError translates PostgreSQL constraint violations into the
// store package's sentinel errors. Returns nil when err is not a recognized
// constraint violation.
func mapConstraintError(err error, entityID uuid.UUID) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}

	switch pgErr.Code {
	case pgForeignKeyViolationCode:
		return fmt.Errorf("%w: referenced document %s not found", store.ErrInvalidEntity, entityID)
	case pgUniqueViolationCode:
		return fmt.Errorf("%w: %s", store.ErrDuplicate, entityID)
	default:
		return nil
	}
}
