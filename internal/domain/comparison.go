package domain

import (
	"slices"

	"github.com/google/uuid"
)

// ChangeType classifies a single difference between two document versions.
type ChangeType string

// Possible change types.
const (
	ChangeTypeAdded    ChangeType = "added"
	ChangeTypeRemoved  ChangeType = "removed"
	ChangeTypeModified ChangeType = "modified"
)

// DocumentChange is one localized difference identified by the comparison
// analysis.
type DocumentChange struct {
	Section string     `json:"section"`
	Type    ChangeType `json:"type"`
	Detail  string     `json:"detail"`
}

// ComparisonResult is the outcome of an AI-assisted comparison between the
// two most recent versions of a document.
type ComparisonResult struct {
	DocumentID     uuid.UUID        `json:"document_id"`
	BaseVersion    int              `json:"base_version"`
	RevisedVersion int              `json:"revised_version"`
	Summary        string           `json:"summary"`
	Changes        []DocumentChange `json:"changes"`
}

// Clone returns a deep copy so a cached result can be handed out without
// sharing the changes slice with the caller.
func (r *ComparisonResult) Clone() *ComparisonResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Changes = slices.Clone(r.Changes)
	return &c
}
