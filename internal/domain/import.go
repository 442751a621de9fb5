package domain

import "github.com/google/uuid"

// ImportResult describes one successfully imported file. The bulk import
// operation accumulates these as it progresses and exposes the partial list
// through the operation's status record.
type ImportResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	FileName   string    `json:"file_name"`
	Title      string    `json:"title"`
	WordCount  int       `json:"word_count"`
}
