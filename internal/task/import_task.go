package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/service/bulkimport"
)

// Importer is the slice of the bulk import service the executor needs.
// Satisfied by *bulkimport.Service.
type Importer interface {
	ProcessFiles(ctx context.Context, files []bulkimport.StagedFile, ownerID uuid.UUID, cb bulkimport.Callbacks) ([]domain.ImportResult, error)
}

// ImportTask executes a bulk import operation. It is the single writer of
// its status record.
type ImportTask struct {
	record   *operation.ImportStatus
	staged   *bulkimport.StagedFiles
	ownerID  uuid.UUID
	importer Importer
	statuses *operation.Store
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewImportTask creates an import executor for the given seeded record.
func NewImportTask(
	record *operation.ImportStatus,
	staged *bulkimport.StagedFiles,
	ownerID uuid.UUID,
	importer Importer,
	statuses *operation.Store,
	emitter events.EventEmitter,
	logger *slog.Logger,
) *ImportTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportTask{
		record:   record,
		staged:   staged,
		ownerID:  ownerID,
		importer: importer,
		statuses: statuses,
		emitter:  emitter,
		logger:   logger.With(slog.String("operation_id", record.OperationID())),
	}
}

// OperationID implements Task.
func (t *ImportTask) OperationID() string { return t.record.OperationID() }

// Kind implements Task.
func (t *ImportTask) Kind() operation.Kind { return operation.KindImport }

// Execute implements Task. The staged files are removed on every exit path.
func (t *ImportTask) Execute(ctx context.Context) error {
	defer func() {
		if err := t.staged.Cleanup(); err != nil {
			t.logger.Warn("failed to clean up staged files", "error", err, "dir", t.staged.Dir)
		}
	}()

	if err := ctx.Err(); err != nil {
		t.record.MarkCanceled()
		t.transition(ctx)
		return nil
	}

	t.record.Advance(operation.StateProcessing)
	t.transition(ctx)

	results, err := t.importer.ProcessFiles(ctx, t.staged.Files, t.ownerID, bulkimport.Callbacks{
		OnFileStart: func(fileName string) {
			t.record.AdvanceFile()
			t.sync()
			t.logger.Debug("importing file", "file_name", fileName)
		},
		OnProgress: func(percent int) {
			t.record.SetPercent(percent)
			t.sync()
		},
		OnPartialResults: func(partial []domain.ImportResult) {
			t.record.SetResults(partial)
			t.sync()
		},
	})

	switch {
	case err == nil:
		t.record.SetResults(results)
		t.record.MarkCompleted()
		t.transition(ctx)
		return nil

	case errors.Is(err, context.Canceled):
		t.record.SetResults(results)
		t.record.MarkCanceled()
		t.transition(ctx)
		t.logger.Info("import canceled", "imported_count", len(results))
		return nil

	case bulkimport.IsBusinessError(err):
		t.record.SetResults(results)
		t.record.MarkFailed(err.Error())
		t.transition(ctx)
		return err

	default:
		t.logger.Error("import failed", "error", err)
		t.record.SetResults(results)
		t.record.MarkFailed(genericFailureMessage)
		t.transition(ctx)
		return err
	}
}

// sync publishes the current record snapshot to the status store.
func (t *ImportTask) sync() {
	t.statuses.Set(t.record.OperationID(), t.record)
}

// transition publishes a snapshot and emits a state transition event.
func (t *ImportTask) transition(ctx context.Context) {
	t.sync()
	if t.emitter != nil {
		_ = t.emitter.EmitEvent(ctx, events.NewOperationEvent(t.record))
	}
}
