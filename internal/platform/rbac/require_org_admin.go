package rbac

import (
	"context"

	"spades-sales-engine/backend/internal/user/domain"
)

// RequireOrgAdmin ensures the caller is authenticated and has role owner or admin.
// Returns the freshly loaded caller on success; ErrUnauthenticated or
// ErrPermissionDenied on failure.
func RequireOrgAdmin(ctx context.Context, getter UserGetter) (*domain.User, error) {
	u, err := resolveActor(ctx, getter)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleOwner && u.Role != domain.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	return u, nil
}

// RequireOwner ensures the caller is authenticated and is the organization owner.
func RequireOwner(ctx context.Context, getter UserGetter) (*domain.User, error) {
	u, err := resolveActor(ctx, getter)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleOwner {
		return nil, ErrPermissionDenied
	}
	return u, nil
}
