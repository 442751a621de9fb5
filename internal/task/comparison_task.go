package task

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/events"
	"github.com/mverity/docvault-api/internal/operation"
	"github.com/mverity/docvault-api/internal/service/comparison"
)

// Comparer is the slice of the comparison service the executor needs.
// Satisfied by *comparison.Service.
type Comparer interface {
	GenerateComparison(ctx context.Context, documentID uuid.UUID) (*domain.ComparisonResult, error)
}

// ComparisonTask executes a document comparison operation. It is the single
// writer of its status record.
type ComparisonTask struct {
	record   *operation.ComparisonStatus
	comparer Comparer
	statuses *operation.Store
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewComparisonTask creates a comparison executor for the given seeded record.
func NewComparisonTask(
	record *operation.ComparisonStatus,
	comparer Comparer,
	statuses *operation.Store,
	emitter events.EventEmitter,
	logger *slog.Logger,
) *ComparisonTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComparisonTask{
		record:   record,
		comparer: comparer,
		statuses: statuses,
		emitter:  emitter,
		logger:   logger.With(slog.String("operation_id", record.OperationID())),
	}
}

// OperationID implements Task.
func (t *ComparisonTask) OperationID() string { return t.record.OperationID() }

// Kind implements Task.
func (t *ComparisonTask) Kind() operation.Kind { return operation.KindComparison }

// Execute implements Task. The comparison moves through Processing,
// Analyzing (the model call) and Finalizing before completing; each phase is
// visible to pollers before the next begins.
func (t *ComparisonTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		t.record.MarkCanceled()
		t.transition(ctx)
		return nil
	}

	t.record.Advance(operation.StateProcessing)
	t.record.SetPercent(10)
	t.transition(ctx)

	t.record.Advance(operation.StateAnalyzing)
	t.record.SetPercent(25)
	t.transition(ctx)

	result, err := t.comparer.GenerateComparison(ctx, t.record.DocumentID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			t.record.MarkCanceled()
			t.transition(ctx)
			t.logger.Info("comparison canceled")
			return nil

		case comparison.IsBusinessError(err):
			t.record.MarkFailed(err.Error())
			t.transition(ctx)
			return err

		default:
			t.logger.Error("comparison failed", "error", err,
				"document_id", t.record.DocumentID.String())
			t.record.MarkFailed(genericFailureMessage)
			t.transition(ctx)
			return err
		}
	}

	t.record.Advance(operation.StateFinalizing)
	t.record.SetPercent(90)
	t.transition(ctx)

	t.record.SetResult(result)
	t.record.MarkCompleted()
	t.transition(ctx)
	return nil
}

func (t *ComparisonTask) transition(ctx context.Context) {
	t.statuses.Set(t.record.OperationID(), t.record)
	if t.emitter != nil {
		_ = t.emitter.EmitEvent(ctx, events.NewOperationEvent(t.record))
	}
}
