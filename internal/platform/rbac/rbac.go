// Package rbac resolves the authenticated caller to a fresh user record
// and gates operations on its role. Roles are always re-derived from
// storage, never trusted from the token.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"spades-sales-engine/backend/internal/server/middleware"
	"spades-sales-engine/backend/internal/user/domain"
)

var (
	// ErrUnauthenticated means the request carried no valid identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrPermissionDenied means a valid caller lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
)

// UserGetter returns a user by id. Used to resolve the caller's current role.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// resolveActor loads the caller's user record and checks it against the
// context org. A deactivated user or an org mismatch fails closed.
func resolveActor(ctx context.Context, getter UserGetter) (*domain.User, error) {
	userID, okUser := middleware.GetUserID(ctx)
	orgID, okOrg := middleware.GetOrgID(ctx)
	if !okUser || userID == "" || !okOrg || orgID == "" {
		return nil, ErrUnauthenticated
	}
	u, err := getter.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	if u == nil || !u.Active || u.OrgID != orgID {
		return nil, ErrUnauthenticated
	}
	return u, nil
}
