package site

import (
	"context"

	domain "importdesk/internal/domain/site"
)

// Store persists the site registry.
type Store interface {
	// List returns all sites ordered by name.
	// PRE: none
	// POST: Returns all registered sites
	List(ctx context.Context) ([]domain.Site, error)

	// GetBySiteID retrieves a site by its platform site ID.
	// PRE: siteID is non-empty
	// POST: Returns the site or an error if not found
	GetBySiteID(ctx context.Context, siteID string) (domain.Site, error)

	// Save persists a site, replacing any existing row with the same ID.
	// PRE: value has a non-empty ID and SiteID
	// POST: Site is persisted
	Save(ctx context.Context, value domain.Site) error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
