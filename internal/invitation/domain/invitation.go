package domain

import (
	"errors"
	"time"

	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Invitation grants account creation bound to one organization, email, and role.
// Single-use: acceptance marks it used in the same transaction that creates the user.
type Invitation struct {
	ID        string
	OrgID     string
	Email     string
	Role      userdomain.Role
	Token     string
	Used      bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Pending reports whether the invitation can still be accepted at the given time.
func (i *Invitation) Pending(now time.Time) bool {
	return !i.Used && now.Before(i.ExpiresAt)
}

// Validate validates the invitation for persistence. Returns an error describing the first validation failure.
func (i *Invitation) Validate() error {
	if i.OrgID == "" {
		return errors.New("organization is required")
	}
	if i.Email == "" {
		return errors.New("email is required")
	}
	if i.Token == "" {
		return errors.New("token is required")
	}
	if !i.Role.Assignable() {
		return errors.New("role must be admin or member")
	}
	return nil
}
