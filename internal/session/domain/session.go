package domain

import "time"

// Session represents an authenticated user session.
type Session struct {
	ID               string
	UserID           string
	OrgID            string
	RefreshJti       string // current refresh token jti for rotation
	RefreshTokenHash string // SHA-256 hash of current refresh token
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	CreatedAt        time.Time
}

// Active reports whether the session is usable at the given time.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
