package repository

import (
	"context"
	"database/sql"
	"errors"

	"spades-sales-engine/backend/internal/db"
	"spades-sales-engine/backend/internal/invitation/domain"
)

const inviteColumns = `id, org_id, email, role, token, used, created_at, expires_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an invitation repository that uses the given db for persistence.
func NewPostgresRepository(dbtx db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: dbtx}
}

// GetByToken returns the invitation for token, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM organization_invites WHERE token = $1`, token)
	return scanInvitation(row)
}

// GetByTokenForUpdate is GetByToken with a row lock held until the
// surrounding transaction ends.
func (r *PostgresRepository) GetByTokenForUpdate(ctx context.Context, token string) (*domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM organization_invites WHERE token = $1 FOR UPDATE`, token)
	return scanInvitation(row)
}

// GetByIDInOrg returns the invitation for id scoped to orgID, or nil if
// not found. A cross-tenant invitation is indistinguishable from a
// missing one.
func (r *PostgresRepository) GetByIDInOrg(ctx context.Context, id, orgID string) (*domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM organization_invites WHERE id = $1 AND org_id = $2`, id, orgID)
	return scanInvitation(row)
}

// ListPendingByOrg returns unused, unexpired invitations for the org,
// oldest first. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM organization_invites
		 WHERE org_id = $1 AND used = false AND expires_at > now()
		 ORDER BY created_at ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Invitation
	for rows.Next() {
		var i domain.Invitation
		if err := rows.Scan(&i.ID, &i.OrgID, &i.Email, &i.Role, &i.Token,
			&i.Used, &i.CreatedAt, &i.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

// CountPendingByOrg returns the number of unused, unexpired invitations for the org.
func (r *PostgresRepository) CountPendingByOrg(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM organization_invites
		 WHERE org_id = $1 AND used = false AND expires_at > now()`, orgID).Scan(&n)
	return n, err
}

// Create persists the invitation to the database. The invitation must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Invitation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organization_invites (`+inviteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		i.ID, i.OrgID, i.Email, i.Role, i.Token, i.Used, i.CreatedAt, i.ExpiresAt)
	return err
}

// MarkUsed marks the invitation as used. Returns an error if the update fails.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE organization_invites SET used = true WHERE id = $1`, id)
	return err
}

// Delete removes the invitation scoped to orgID.
func (r *PostgresRepository) Delete(ctx context.Context, id, orgID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_invites WHERE id = $1 AND org_id = $2`, id, orgID)
	return err
}

func scanInvitation(row *sql.Row) (*domain.Invitation, error) {
	var i domain.Invitation
	if err := row.Scan(&i.ID, &i.OrgID, &i.Email, &i.Role, &i.Token,
		&i.Used, &i.CreatedAt, &i.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}
