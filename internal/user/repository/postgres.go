package repository

import (
	"context"
	"database/sql"
	"errors"

	"spades-sales-engine/backend/internal/db"
	"spades-sales-engine/backend/internal/user/domain"
)

const userColumns = `id, org_id, email, name, role, password_hash, active, is_verified, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user for email, or nil if not found. Email is
// unique across all organizations.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByIDInOrg returns the user for id scoped to orgID, or nil if not
// found. A user in another organization is indistinguishable from a
// missing one.
func (r *PostgresRepository) GetByIDInOrg(ctx context.Context, id, orgID string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND org_id = $2`, id, orgID)
	return scanUser(row)
}

// GetByIDInOrgForUpdate is GetByIDInOrg with a row lock held until the
// surrounding transaction ends.
func (r *PostgresRepository) GetByIDInOrgForUpdate(ctx context.Context, id, orgID string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND org_id = $2 FOR UPDATE`, id, orgID)
	return scanUser(row)
}

// ListByOrg returns all users for the given org, owner first, then by
// creation time. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE org_id = $1
		 ORDER BY (role = 'owner') DESC, created_at ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.OrgID, &u.Email, &u.Name, &u.Role,
			&u.PasswordHash, &u.Active, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// CountByOrg returns the number of users in the given org.
func (r *PostgresRepository) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE org_id = $1`, orgID).Scan(&n)
	return n, err
}

// Create persists the user to the database. The user must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.OrgID, u.Email, u.Name, u.Role, u.PasswordHash,
		u.Active, u.IsVerified, u.CreatedAt, u.UpdatedAt)
	return err
}

// Update updates the mutable user fields. Returns an error if the update fails.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, role = $3, password_hash = $4, active = $5,
		 is_verified = $6, updated_at = $7 WHERE id = $1`,
		u.ID, u.Name, u.Role, u.PasswordHash, u.Active, u.IsVerified, u.UpdatedAt)
	return err
}

// UpdateRole sets the role of the user scoped to orgID.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id, orgID string, role domain.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $3, updated_at = now() WHERE id = $1 AND org_id = $2`,
		id, orgID, role)
	return err
}

// Delete removes the user scoped to orgID. Dependent rows cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id, orgID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1 AND org_id = $2`, id, orgID)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.OrgID, &u.Email, &u.Name, &u.Role,
		&u.PasswordHash, &u.Active, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
