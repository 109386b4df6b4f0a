package logentry

import (
	"context"

	domain "importdesk/internal/domain/logentry"
)

// Store persists backend activity log entries.
type Store interface {
	// Save persists a log entry.
	// PRE: entry has a non-empty ID and Status
	// POST: Entry is persisted
	Save(ctx context.Context, entry domain.Entry) error

	// List returns log entries ordered by creation date descending.
	// PRE: limit > 0
	// POST: Returns at most limit entries, newest first
	List(ctx context.Context, limit int) ([]domain.Entry, error)

	// Clear removes all log entries.
	// PRE: none
	// POST: The log is empty
	Clear(ctx context.Context) error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
