package repository

import (
	"context"

	"spades-sales-engine/backend/internal/integration/domain"
)

// Repository defines data access methods for stored provider credentials.
type Repository interface {
	// GetByOrgAndProvider returns the credential for the org/provider pair.
	// It returns an error only for database failures, not for missing rows.
	GetByOrgAndProvider(ctx context.Context, orgID, provider string) (*domain.Credential, error)

	// Upsert inserts the credential or, when the org/provider pair already
	// exists, replaces its key and bumps updated_at.
	Upsert(ctx context.Context, cred *domain.Credential) error
}
