package rbac

import (
	"context"

	"spades-sales-engine/backend/internal/user/domain"
)

// RequireOrgMember ensures the caller is authenticated and belongs to the
// context org with any role. Returns the freshly loaded caller.
func RequireOrgMember(ctx context.Context, getter UserGetter) (*domain.User, error) {
	return resolveActor(ctx, getter)
}
