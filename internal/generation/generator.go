package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
)

// ComparisonInput carries the two document versions to analyze. Both texts
// are loaded by the caller; the generator has no persistence access.
type ComparisonInput struct {
	DocumentID     uuid.UUID
	Title          string
	BaseVersion    int
	RevisedVersion int
	BaseText       string
	RevisedText    string
}

// Generator defines the interface for producing AI-assisted comparison
// analyses between two versions of a document.
type Generator interface {
	// GenerateComparison analyzes the differences between the base and
	// revised texts and returns a structured comparison result, or an
	// error from the taxonomy in errors.go if the analysis fails.
	GenerateComparison(ctx context.Context, input ComparisonInput) (*domain.ComparisonResult, error)
}
