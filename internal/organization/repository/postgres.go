package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"spades-sales-engine/backend/internal/db"
	"spades-sales-engine/backend/internal/organization/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetOrganizationByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, settings, created_at FROM organizations WHERE id = $1`, id)
	return scanOrg(row)
}

// CreateOrganization persists the organization to the database. The organization must have ID set.
func (r *PostgresRepository) CreateOrganization(ctx context.Context, o *domain.Org) error {
	settings, err := json.Marshal(o.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, settings, created_at) VALUES ($1, $2, $3, $4)`,
		o.ID, o.Name, settings, o.CreatedAt)
	return err
}

// UpdateOrganization updates the existing organization record in the database. Returns an error if the update fails.
func (r *PostgresRepository) UpdateOrganization(ctx context.Context, o *domain.Org) error {
	settings, err := json.Marshal(o.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE organizations SET name = $2, settings = $3 WHERE id = $1`,
		o.ID, o.Name, settings)
	return err
}

func scanOrg(row *sql.Row) (*domain.Org, error) {
	var o domain.Org
	var settings []byte
	if err := row.Scan(&o.ID, &o.Name, &settings, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &o.Settings); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	}
	return &o, nil
}
