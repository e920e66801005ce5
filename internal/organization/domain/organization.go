package domain

import (
	"errors"
	"time"
)

// Org represents an organization/tenant.
type Org struct {
	ID        string
	Name      string
	Settings  Settings
	CreatedAt time.Time
}

// Settings holds per-organization invitation policy knobs. The zero value
// means no restriction.
type Settings struct {
	// AllowedInviteDomains restricts invite recipient email domains.
	// Empty means any domain.
	AllowedInviteDomains []string `json:"allowed_invite_domains,omitempty"`
	// MaxMembers caps total members plus outstanding invites. Zero means
	// unlimited.
	MaxMembers int `json:"max_members,omitempty"`
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.Settings.MaxMembers < 0 {
		return errors.New("max members must not be negative")
	}
	return nil
}
