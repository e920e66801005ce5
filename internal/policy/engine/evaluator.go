package engine

import (
	"context"

	orgdomain "spades-sales-engine/backend/internal/organization/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// InviteResult holds the result of invite-guard policy evaluation.
type InviteResult struct {
	Allowed bool
	Reason  string // human-readable denial reason; empty when allowed
}

// Evaluator evaluates invitation policies using OPA or other engines.
type Evaluator interface {
	// EvaluateInvite evaluates the org's invite policy for the given
	// recipient email and role. seatsUsed is the current member count
	// plus outstanding invites.
	EvaluateInvite(
		ctx context.Context,
		org *orgdomain.Org,
		email string,
		role userdomain.Role,
		seatsUsed int64,
	) (InviteResult, error)
}
