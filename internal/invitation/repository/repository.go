package repository

import (
	"context"

	"spades-sales-engine/backend/internal/invitation/domain"
)

// Repository defines persistence for invitations.
type Repository interface {
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)
	// GetByTokenForUpdate locks the invitation row for the duration of the
	// surrounding transaction. Call it only on a transaction-bound repository.
	GetByTokenForUpdate(ctx context.Context, token string) (*domain.Invitation, error)
	GetByIDInOrg(ctx context.Context, id, orgID string) (*domain.Invitation, error)
	// ListPendingByOrg returns unused, unexpired invitations, oldest first.
	ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Invitation, error)
	CountPendingByOrg(ctx context.Context, orgID string) (int64, error)
	Create(ctx context.Context, i *domain.Invitation) error
	MarkUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id, orgID string) error
}
