package bulkimport

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/store"
)

// Callbacks lets the caller observe import progress. Any of the fields may
// be nil. Callbacks are invoked from the goroutine running ProcessFiles.
type Callbacks struct {
	// OnFileStart fires before each file is processed.
	OnFileStart func(fileName string)

	// OnProgress fires after each file with the overall percentage done.
	OnProgress func(percent int)

	// OnPartialResults fires after each successful file with all results
	// accumulated so far. The slice is the caller's to keep.
	OnPartialResults func(results []domain.ImportResult)
}

// Service performs bulk document imports.
type Service struct {
	docStore store.DocumentStore
	logger   *slog.Logger
	runTx    func(ctx context.Context, fn store.TxFn) error
}

// NewService creates a bulk import service.
func NewService(db *sql.DB, docStore store.DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		docStore: docStore,
		logger:   logger.With(slog.String("component", "bulkimport_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}
}

// ProcessFiles imports the staged files in order, creating one document with
// an initial version per file. Each document and its version are written in
// a single transaction, so a failure partway through leaves the already
// imported documents in place and nothing half-written.
//
// On error the results imported so far are returned alongside it; a context
// cancellation surfaces as ctx.Err() so callers can distinguish cancellation
// from failure.
func (s *Service) ProcessFiles(ctx context.Context, files []StagedFile, ownerID uuid.UUID, cb Callbacks) ([]domain.ImportResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	results := make([]domain.ImportResult, 0, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if cb.OnFileStart != nil {
			cb.OnFileStart(file.OriginalName)
		}

		result, err := s.importFile(ctx, file, ownerID)
		if err != nil {
			return results, err
		}
		results = append(results, *result)

		if cb.OnPartialResults != nil {
			cb.OnPartialResults(slices.Clone(results))
		}
		if cb.OnProgress != nil {
			cb.OnProgress((i + 1) * 100 / len(files))
		}
	}

	s.logger.InfoContext(ctx, "bulk import finished",
		slog.Int("file_count", len(files)),
		slog.String("owner_id", ownerID.String()))

	return results, nil
}

func (s *Service) importFile(ctx context.Context, file StagedFile, ownerID uuid.UUID) (*domain.ImportResult, error) {
	body, err := os.ReadFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file %q: %w", file.OriginalName, err)
	}

	parsed, err := parseFile(file.OriginalName, body)
	if err != nil {
		return nil, err
	}

	doc, err := domain.NewDocument(ownerID, parsed.Title, file.OriginalName, parsed.ContentType, parsed.WordCount)
	if err != nil {
		return nil, &FileError{FileName: file.OriginalName, Err: err}
	}
	version, err := domain.NewDocumentVersion(doc.ID, 1, parsed.Body)
	if err != nil {
		return nil, &FileError{FileName: file.OriginalName, Err: err}
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.docStore.WithTx(tx)
		if err := txStore.Create(ctx, doc); err != nil {
			return err
		}
		return txStore.CreateVersion(ctx, version)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist document %q: %w", file.OriginalName, err)
	}

	return &domain.ImportResult{
		DocumentID: doc.ID,
		FileName:   file.OriginalName,
		Title:      doc.Title,
		WordCount:  doc.WordCount,
	}, nil
}
