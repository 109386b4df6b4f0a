package site

import (
	"context"
	"database/sql"
	"fmt"

	"importdesk/internal/adapters/storage"
	domain "importdesk/internal/domain/site"
)

// SQLiteStore implements the site Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new site registry store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List returns all sites ordered by name.
// PRE: none
// POST: Returns all registered sites
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_name, site_id FROM site ORDER BY site_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var entity domain.Site
		if err := rows.Scan(&entity.ID, &entity.SiteName, &entity.SiteID); err != nil {
			return nil, err
		}
		sites = append(sites, entity)
	}
	return sites, rows.Err()
}

// GetBySiteID retrieves a site by its platform site ID.
// PRE: siteID is non-empty
// POST: Returns the site or an error if not found
func (s *SQLiteStore) GetBySiteID(ctx context.Context, siteID string) (domain.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, site_name, site_id FROM site WHERE site_id = ?`, siteID)

	var entity domain.Site
	err := row.Scan(&entity.ID, &entity.SiteName, &entity.SiteID)
	if err == sql.ErrNoRows {
		return domain.Site{}, fmt.Errorf("site not found: %w", err)
	}
	return entity, err
}

// Save persists a site, replacing any existing row with the same ID.
// PRE: value has a non-empty ID and SiteID
// POST: Site is persisted
func (s *SQLiteStore) Save(ctx context.Context, value domain.Site) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO site (id, site_name, site_id) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET site_name = excluded.site_name, site_id = excluded.site_id`,
		value.ID, value.SiteName, value.SiteID)
	return err
}
