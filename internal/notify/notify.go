// Package notify delivers invitation emails through an external email API.
// Delivery is best-effort from the caller's point of view.
package notify

import "context"

// InviteEmail describes an invitation email to deliver.
type InviteEmail struct {
	To      string
	OrgName string
	Role    string
	Link    string
}

// Notifier sends invitation emails.
type Notifier interface {
	SendInvite(ctx context.Context, msg InviteEmail) error
}

// Noop is a Notifier that does nothing. Used when no email API is configured.
type Noop struct{}

// SendInvite implements Notifier.
func (Noop) SendInvite(ctx context.Context, msg InviteEmail) error { return nil }
