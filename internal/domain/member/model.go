package member

import "time"

// Member statuses. An imported member starts as pending and becomes
// active once they accept the welcome email invitation.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

// Member is a user account on a managed site, created by the import
// backend. The initial password is random and stored only as a hash; the
// member resets it from the welcome email.
type Member struct {
	ID           string
	SiteID       string
	Email        string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
}
