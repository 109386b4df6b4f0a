package member

import (
	"context"

	domain "importdesk/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	// GetByEmail retrieves a member of a site by email.
	// PRE: siteID and email are non-empty
	// POST: Returns the member or an error if not found
	GetByEmail(ctx context.Context, siteID, email string) (domain.Member, error)

	// Save persists a member.
	// PRE: value has a non-empty ID, SiteID and Email
	// POST: Member is persisted
	Save(ctx context.Context, value domain.Member) error

	// List returns members of a site ordered by creation date descending.
	// PRE: siteID is non-empty, limit > 0
	// POST: Returns at most limit members
	List(ctx context.Context, siteID string, limit int) ([]domain.Member, error)

	// CountBySite returns the number of members on a site.
	// PRE: siteID is non-empty
	// POST: Returns the member count
	CountBySite(ctx context.Context, siteID string) (int, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
