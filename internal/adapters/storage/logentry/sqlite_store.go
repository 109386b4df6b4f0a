package logentry

import (
	"context"
	"time"

	"importdesk/internal/adapters/storage"
	domain "importdesk/internal/domain/logentry"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the log entry Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new log entry store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a log entry.
// PRE: entry has a non-empty ID and Status
// POST: Entry is persisted
func (s *SQLiteStore) Save(ctx context.Context, entry domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO log_entry (id, created_date, status, message, context) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.CreatedDate.Format(dateLayout), entry.Status, entry.Message, entry.Context)
	return err
}

// List returns log entries ordered by creation date descending.
// PRE: limit > 0
// POST: Returns at most limit entries, newest first
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_date, status, message, context FROM log_entry
		 ORDER BY created_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var entity domain.Entry
		var createdDate string
		if err := rows.Scan(&entity.ID, &createdDate, &entity.Status, &entity.Message, &entity.Context); err != nil {
			return nil, err
		}
		entity.CreatedDate, _ = time.Parse(dateLayout, createdDate)
		entries = append(entries, entity)
	}
	return entries, rows.Err()
}

// Clear removes all log entries.
// PRE: none
// POST: The log is empty
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM log_entry`)
	return err
}
