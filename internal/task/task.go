package task

import (
	"context"

	"github.com/mverity/docvault-api/internal/operation"
)

// Task represents a unit of background work tied to one operation record.
type Task interface {
	// OperationID returns the operation this task executes, matching the
	// record's key in the operation store.
	OperationID() string

	// Kind returns the operation kind.
	Kind() operation.Kind

	// Execute runs the task logic. The context is managed by the Runner
	// and is canceled on operation cancellation or server shutdown.
	Execute(ctx context.Context) error
}

// genericFailureMessage is what clients see when an operation fails for a
// reason that is not safe to expose. The underlying error goes to the log.
const genericFailureMessage = "the operation failed due to an internal error"
