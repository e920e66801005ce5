package repository

import (
	"context"
	"database/sql"
	"errors"

	"spades-sales-engine/backend/internal/db"
	"spades-sales-engine/backend/internal/integration/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an integration repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByOrgAndProvider returns the credential for the org/provider pair, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByOrgAndProvider(ctx context.Context, orgID, provider string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT org_id, provider, api_key, created_at, updated_at
		 FROM organization_integrations WHERE org_id = $1 AND provider = $2`,
		orgID, provider)
	var c domain.Credential
	if err := row.Scan(&c.OrgID, &c.Provider, &c.APIKey, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Upsert inserts the credential or replaces the key for an existing
// org/provider pair, keeping created_at and bumping updated_at.
func (r *PostgresRepository) Upsert(ctx context.Context, cred *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organization_integrations (org_id, provider, api_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (org_id, provider) DO UPDATE SET
		     api_key = EXCLUDED.api_key,
		     updated_at = EXCLUDED.updated_at`,
		cred.OrgID, cred.Provider, cred.APIKey, cred.CreatedAt, cred.UpdatedAt)
	return err
}
