package events

import (
	"context"
	"time"

	"github.com/mverity/docvault-api/internal/operation"
)

// OperationEvent describes a single state transition of a background
// operation. It carries only what consumers need; the full record stays in
// the operation store.
type OperationEvent struct {
	// OperationID identifies the operation that transitioned.
	OperationID string `json:"operation_id"`

	// Kind is the operation kind discriminator.
	Kind operation.Kind `json:"kind"`

	// State is the state the operation transitioned into.
	State operation.State `json:"state"`

	// PercentComplete is the progress at the time of the transition.
	PercentComplete int `json:"percent_complete"`

	// Error holds the safe failure message for Failed transitions.
	Error string `json:"error,omitempty"`

	// OccurredAt is when the transition happened.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOperationEvent builds an event from the record's current state.
func NewOperationEvent(rec operation.Record) *OperationEvent {
	ev := &OperationEvent{
		OperationID: rec.OperationID(),
		Kind:        rec.RecordKind(),
		State:       rec.RecordState(),
		OccurredAt:  time.Now().UTC(),
	}
	switch r := rec.(type) {
	case *operation.ImportStatus:
		ev.PercentComplete = r.PercentComplete
		ev.Error = r.Status.Error
	case *operation.ComparisonStatus:
		ev.PercentComplete = r.PercentComplete
		ev.Error = r.Status.Error
	}
	return ev
}

// EventHandler is implemented by components that consume operation events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *OperationEvent) error
}

// EventEmitter is implemented by components that publish operation events.
// Executors hold an emitter so they never depend on concrete consumers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *OperationEvent) error
}
