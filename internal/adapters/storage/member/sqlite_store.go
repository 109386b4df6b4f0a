package member

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"importdesk/internal/adapters/storage"
	domain "importdesk/internal/domain/member"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the member Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByEmail retrieves a member of a site by email.
// PRE: siteID and email are non-empty
// POST: Returns the member or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, siteID, email string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, site_id, email, password_hash, status, created_at FROM member WHERE site_id = ? AND email = ?`,
		siteID, strings.ToLower(email))
	return scanMember(row)
}

// Save persists a member.
// PRE: value has a non-empty ID, SiteID and Email
// POST: Member is persisted
func (s *SQLiteStore) Save(ctx context.Context, value domain.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO member (id, site_id, email, password_hash, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET password_hash = excluded.password_hash, status = excluded.status`,
		value.ID, value.SiteID, strings.ToLower(value.Email), value.PasswordHash,
		value.Status, value.CreatedAt.Format(dateLayout))
	return err
}

// List returns members of a site ordered by creation date descending.
// PRE: siteID is non-empty, limit > 0
// POST: Returns at most limit members
func (s *SQLiteStore) List(ctx context.Context, siteID string, limit int) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_id, email, password_hash, status, created_at FROM member
		 WHERE site_id = ? ORDER BY created_at DESC LIMIT ?`, siteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var entity domain.Member
		var createdAt string
		if err := rows.Scan(&entity.ID, &entity.SiteID, &entity.Email, &entity.PasswordHash, &entity.Status, &createdAt); err != nil {
			return nil, err
		}
		entity.CreatedAt, _ = time.Parse(dateLayout, createdAt)
		members = append(members, entity)
	}
	return members, rows.Err()
}

// CountBySite returns the number of members on a site.
// PRE: siteID is non-empty
// POST: Returns the member count
func (s *SQLiteStore) CountBySite(ctx context.Context, siteID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM member WHERE site_id = ?`, siteID).Scan(&count)
	return count, err
}

// scanMember scans a single row into a Member.
func scanMember(row *sql.Row) (domain.Member, error) {
	var entity domain.Member
	var createdAt string
	err := row.Scan(&entity.ID, &entity.SiteID, &entity.Email, &entity.PasswordHash, &entity.Status, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	if err != nil {
		return domain.Member{}, err
	}
	entity.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return entity, nil
}
