package repository

import (
	"context"

	"spades-sales-engine/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByIDInOrg(ctx context.Context, id, orgID string) (*domain.User, error)
	// GetByIDInOrgForUpdate locks the target row for the duration of the
	// surrounding transaction. Call it only on a transaction-bound repository.
	GetByIDInOrgForUpdate(ctx context.Context, id, orgID string) (*domain.User, error)
	// ListByOrg returns the org roster ordered owner first, then by
	// creation time.
	ListByOrg(ctx context.Context, orgID string) ([]*domain.User, error)
	CountByOrg(ctx context.Context, orgID string) (int64, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	UpdateRole(ctx context.Context, id, orgID string, role domain.Role) error
	Delete(ctx context.Context, id, orgID string) error
}
