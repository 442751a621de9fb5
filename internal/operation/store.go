package operation

import (
	"log/slog"
	"sync"
	"time"
)

// Store is a concurrency-safe, type-preserving map of operation ID to
// status record with bounded retention. Entries expire a fixed TTL after
// their last write; expired entries report not-found on read and are
// physically removed by Sweep, which cmd/server schedules periodically.
//
// Set and TryGet both work on clones, so the single writer of a record can
// keep mutating its working copy while any number of readers poll.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	logger  *slog.Logger
}

type entry struct {
	record    Record
	expiresAt time.Time
}

// NewStore creates a Store whose entries expire ttl after their last Set.
// If logger is nil, a default logger will be used.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "operation_store")),
	}
}

// Set stores or overwrites the record for the given operation ID and
// refreshes its retention window. The stored value is a clone; the caller
// keeps ownership of rec.
func (s *Store) Set(operationID string, rec Record) {
	clone := rec.Clone()
	expiresAt := time.Now().Add(s.ttl)

	s.mu.Lock()
	s.entries[operationID] = entry{record: clone, expiresAt: expiresAt}
	s.mu.Unlock()
}

// TryGet retrieves a clone of the record for the given operation ID.
// Returns false for unknown IDs and for entries past their retention
// window; callers cannot distinguish the two, by design.
func (s *Store) TryGet(operationID string) (Record, bool) {
	s.mu.RLock()
	e, ok := s.entries[operationID]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.record.Clone(), true
}

// Remove deletes the record for the given operation ID, if present. Used
// by the submission path to undo a seed when enqueueing fails.
func (s *Store) Remove(operationID string) {
	s.mu.Lock()
	delete(s.entries, operationID)
	s.mu.Unlock()
}

// Sweep removes all expired entries and returns how many were evicted.
func (s *Store) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	evicted := 0
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			evicted++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	if evicted > 0 {
		s.logger.Debug("swept expired operation records",
			slog.Int("evicted", evicted),
			slog.Int("remaining", remaining))
	}
	return evicted
}

// Len returns the number of entries currently held, including expired
// entries not yet swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
