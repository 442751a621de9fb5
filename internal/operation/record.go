package operation

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mverity/docvault-api/internal/domain"
)

// Kind discriminates the concrete record type held in the store.
type Kind string

// Known operation kinds.
const (
	KindImport     Kind = "import"
	KindComparison Kind = "comparison"
)

// State is a symbolic name for an operation's position in its state machine.
type State string

// Operation states. Queued is the initial state, set synchronously at
// submission. Analyzing and Finalizing are comparison-specific phases.
// Completed, Canceled and Failed are terminal.
const (
	StateQueued     State = "queued"
	StateProcessing State = "processing"
	StateAnalyzing  State = "analyzing"
	StateFinalizing State = "finalizing"
	StateCompleted  State = "completed"
	StateCanceled   State = "canceled"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions can occur from s.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCanceled, StateFailed:
		return true
	default:
		return false
	}
}

// Record is the interface all status record kinds satisfy. The store and
// the runner's failure backstop work against this interface; executors work
// with the concrete types.
type Record interface {
	// OperationID returns the operation identifier, which matches the
	// store key.
	OperationID() string

	// RecordKind returns the kind discriminator.
	RecordKind() Kind

	// RecordState returns the current state.
	RecordState() State

	// MarkFailed transitions the record to the Failed terminal state with
	// the given safe-to-display message. No-op if already terminal.
	MarkFailed(msg string)

	// Clone returns a deep copy of the record.
	Clone() Record
}

// Status is the header embedded by every record kind. All mutators are
// no-ops once a terminal state has been reached, and none of them ever
// touches CreatedAt.
type Status struct {
	ID              string    `json:"operation_id"`
	Kind            Kind      `json:"kind"`
	State           State     `json:"status"`
	PercentComplete int       `json:"percent_complete"`
	ProgressURL     string    `json:"progress_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Error           string    `json:"error,omitempty"`
}

func newStatus(id string, kind Kind, progressURL string) Status {
	now := time.Now().UTC()
	return Status{
		ID:          id,
		Kind:        kind,
		State:       StateQueued,
		ProgressURL: progressURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OperationID implements Record.
func (s *Status) OperationID() string { return s.ID }

// RecordKind implements Record.
func (s *Status) RecordKind() Kind { return s.Kind }

// RecordState implements Record.
func (s *Status) RecordState() State { return s.State }

// Advance moves the record to a non-terminal state. Transitions are
// strictly forward; calling Advance with a terminal state or on an already
// terminal record is a no-op (use the Mark* methods for terminal writes).
func (s *Status) Advance(state State) {
	if s.State.Terminal() || state.Terminal() {
		return
	}
	s.State = state
	s.touch()
}

// SetPercent raises PercentComplete. Values below the current percent or
// outside 0-100 are ignored, which keeps the observed sequence monotonic
// regardless of collaborator callback ordering.
func (s *Status) SetPercent(percent int) {
	if s.State.Terminal() {
		return
	}
	if percent < 0 || percent > 100 || percent < s.PercentComplete {
		return
	}
	s.PercentComplete = percent
	s.touch()
}

// MarkCompleted transitions to the Completed terminal state and forces
// PercentComplete to 100. No-op if already terminal.
func (s *Status) MarkCompleted() {
	if s.State.Terminal() {
		return
	}
	s.State = StateCompleted
	s.PercentComplete = 100
	s.touch()
}

// MarkCanceled transitions to the Canceled terminal state. No-op if already
// terminal.
func (s *Status) MarkCanceled() {
	if s.State.Terminal() {
		return
	}
	s.State = StateCanceled
	s.touch()
}

// MarkFailed implements Record.
func (s *Status) MarkFailed(msg string) {
	if s.State.Terminal() {
		return
	}
	s.State = StateFailed
	s.Error = msg
	s.touch()
}

func (s *Status) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// ImportStatus is the record kind for bulk import operations.
type ImportStatus struct {
	Status
	TotalFiles  int                   `json:"total_files"`
	CurrentFile int                   `json:"current_file"`
	Results     []domain.ImportResult `json:"results,omitempty"`
}

// NewImportStatus seeds a Queued import record.
func NewImportStatus(id string, progressURL string, totalFiles int) *ImportStatus {
	return &ImportStatus{
		Status:     newStatus(id, KindImport, progressURL),
		TotalFiles: totalFiles,
	}
}

// AdvanceFile increments the current-file counter, capped at TotalFiles.
// Called once per file-start marker from the import collaborator.
func (s *ImportStatus) AdvanceFile() {
	if s.State.Terminal() {
		return
	}
	if s.CurrentFile < s.TotalFiles {
		s.CurrentFile++
		s.touch()
	}
}

// SetResults replaces the partial results list.
func (s *ImportStatus) SetResults(results []domain.ImportResult) {
	if s.State.Terminal() {
		return
	}
	s.Results = slices.Clone(results)
	s.touch()
}

// Clone implements Record.
func (s *ImportStatus) Clone() Record {
	c := *s
	c.Results = slices.Clone(s.Results)
	return &c
}

// ComparisonStatus is the record kind for document comparison operations.
type ComparisonStatus struct {
	Status
	DocumentID uuid.UUID                `json:"document_id"`
	Result     *domain.ComparisonResult `json:"result,omitempty"`
}

// NewComparisonStatus seeds a Queued comparison record.
func NewComparisonStatus(id string, progressURL string, documentID uuid.UUID) *ComparisonStatus {
	return &ComparisonStatus{
		Status:     newStatus(id, KindComparison, progressURL),
		DocumentID: documentID,
	}
}

// SetResult attaches the comparison result. Only meaningful together with
// MarkCompleted; failed and canceled operations carry no result.
func (s *ComparisonStatus) SetResult(result *domain.ComparisonResult) {
	if s.State.Terminal() {
		return
	}
	s.Result = result.Clone()
	s.touch()
}

// Clone implements Record.
func (s *ComparisonStatus) Clone() Record {
	c := *s
	c.Result = s.Result.Clone()
	return &c
}
