package comparison

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/generation"
	"github.com/mverity/docvault-api/internal/store"
)

// ErrNotEnoughVersions indicates the document has fewer than two versions,
// so there is nothing to compare. Its message is safe to show to clients.
var ErrNotEnoughVersions = errors.New("document needs at least two versions to compare")

// Service performs document comparisons.
type Service struct {
	docStore  store.DocumentStore
	generator generation.Generator
	logger    *slog.Logger
}

// NewService creates a comparison service.
func NewService(docStore store.DocumentStore, generator generation.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docStore:  docStore,
		generator: generator,
		logger:    logger.With(slog.String("component", "comparison_service")),
	}
}

// GenerateComparison compares the two most recent versions of the document
// and returns a structured result. Returns store.ErrDocumentNotFound if the
// document does not exist and ErrNotEnoughVersions if it has fewer than two
// versions.
func (s *Service) GenerateComparison(ctx context.Context, documentID uuid.UUID) (*domain.ComparisonResult, error) {
	doc, err := s.docStore.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	versions, err := s.docStore.GetVersions(ctx, documentID, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load versions for document %s: %w", documentID, err)
	}
	if len(versions) < 2 {
		return nil, ErrNotEnoughVersions
	}

	// GetVersions returns newest first.
	revised, base := versions[0], versions[1]

	result, err := s.generator.GenerateComparison(ctx, generation.ComparisonInput{
		DocumentID:     documentID,
		Title:          doc.Title,
		BaseVersion:    base.VersionNumber,
		RevisedVersion: revised.VersionNumber,
		BaseText:       base.Body,
		RevisedText:    revised.Body,
	})
	if err != nil {
		return nil, err
	}

	// The generator fills summary and changes; identity fields are ours.
	result.DocumentID = documentID
	result.BaseVersion = base.VersionNumber
	result.RevisedVersion = revised.VersionNumber

	s.logger.InfoContext(ctx, "comparison generated",
		slog.String("document_id", documentID.String()),
		slog.Int("base_version", base.VersionNumber),
		slog.Int("revised_version", revised.VersionNumber),
		slog.Int("change_count", len(result.Changes)))

	return result, nil
}

// IsBusinessError reports whether err carries a client-safe message. All
// other comparison failures are reported to clients with a generic message.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrNotEnoughVersions) ||
		errors.Is(err, store.ErrDocumentNotFound) ||
		errors.Is(err, generation.ErrContentBlocked)
}
