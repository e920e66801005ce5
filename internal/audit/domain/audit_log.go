package domain

import "time"

// AuditLog is one append-only trail entry: who did what to which resource,
// from where. Metadata carries action-specific JSON.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
