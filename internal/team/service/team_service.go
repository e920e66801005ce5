package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"spades-sales-engine/backend/internal/audit"
	invdomain "spades-sales-engine/backend/internal/invitation/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Sentinel errors for the team service; handler maps them to HTTP statuses.
var (
	ErrNotFound     = errors.New("member not found")
	ErrForbidden    = errors.New("operation not permitted for this role")
	ErrSelfAction   = errors.New("cannot perform this operation on yourself")
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepo is the minimal user repository needed by the team service.
type UserRepo interface {
	GetByIDInOrgForUpdate(ctx context.Context, id, orgID string) (*userdomain.User, error)
	ListByOrg(ctx context.Context, orgID string) ([]*userdomain.User, error)
	UpdateRole(ctx context.Context, id, orgID string, role userdomain.Role) error
	Delete(ctx context.Context, id, orgID string) error
}

// InviteRepo is the minimal invitation repository needed by the team service.
type InviteRepo interface {
	ListPendingByOrg(ctx context.Context, orgID string) ([]*invdomain.Invitation, error)
}

// TxRepos holds repositories bound to one database transaction.
type TxRepos struct {
	Users UserRepo
}

// Tx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Tx interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// Roster is the team view: members owner-first plus outstanding invites.
type Roster struct {
	Members []*userdomain.User
	Invites []*invdomain.Invitation
}

// TeamService orchestrates roster reads and team mutations. Mutations
// re-check authorization against the target's freshly loaded role inside
// the transaction, so a concurrent role change cannot slip past the check.
type TeamService struct {
	tx       Tx
	users    UserRepo
	invites  InviteRepo
	auditLog audit.AuditLogger
}

// NewTeamService returns a TeamService with the given dependencies.
func NewTeamService(tx Tx, users UserRepo, invites InviteRepo, auditLog audit.AuditLogger) *TeamService {
	return &TeamService{tx: tx, users: users, invites: invites, auditLog: auditLog}
}

// Roster returns the actor's org members (owner first) and pending invites.
func (s *TeamService) Roster(ctx context.Context, actor *userdomain.User) (*Roster, error) {
	members, err := s.users.ListByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	invites, err := s.invites.ListPendingByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, err
	}
	return &Roster{Members: members, Invites: invites}, nil
}

// RemoveMember deletes the target user from the actor's org. The target's
// role is reloaded under a row lock and the permission check runs against
// that fresh value. A cross-tenant target fails with ErrNotFound.
func (s *TeamService) RemoveMember(ctx context.Context, actor *userdomain.User, targetID string) error {
	if targetID == "" {
		return fmt.Errorf("%w: target id is required", ErrInvalidInput)
	}
	if actor.ID == targetID {
		return ErrSelfAction
	}
	var removed *userdomain.User
	err := s.tx.Run(ctx, func(r TxRepos) error {
		target, err := r.Users.GetByIDInOrgForUpdate(ctx, targetID, actor.OrgID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrNotFound
		}
		if !userdomain.CanRemove(actor, target) {
			return ErrForbidden
		}
		if err := r.Users.Delete(ctx, target.ID, actor.OrgID); err != nil {
			return err
		}
		removed = target
		return nil
	})
	if err != nil {
		return err
	}
	s.auditLog.LogEvent(ctx, actor.OrgID, actor.ID, "REMOVE_MEMBER", "user", memberMetadata(removed))
	return nil
}

// ChangeRole sets the target user's role. Owner only; the target's current
// state is reloaded under a row lock before the check.
func (s *TeamService) ChangeRole(ctx context.Context, actor *userdomain.User, targetID string, newRole userdomain.Role) error {
	if targetID == "" {
		return fmt.Errorf("%w: target id is required", ErrInvalidInput)
	}
	if !newRole.Assignable() {
		return fmt.Errorf("%w: role must be admin or member", ErrInvalidInput)
	}
	if actor.ID == targetID {
		return ErrSelfAction
	}
	var changed *userdomain.User
	err := s.tx.Run(ctx, func(r TxRepos) error {
		target, err := r.Users.GetByIDInOrgForUpdate(ctx, targetID, actor.OrgID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrNotFound
		}
		if !userdomain.CanChangeRole(actor, target, newRole) {
			return ErrForbidden
		}
		if err := r.Users.UpdateRole(ctx, target.ID, actor.OrgID, newRole); err != nil {
			return err
		}
		changed = target
		return nil
	})
	if err != nil {
		return err
	}
	s.auditLog.LogEvent(ctx, actor.OrgID, actor.ID, "CHANGE_ROLE", "user",
		roleMetadata(changed, newRole))
	return nil
}

func memberMetadata(u *userdomain.User) string {
	raw, err := json.Marshal(map[string]string{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    string(u.Role),
	})
	if err != nil {
		return ""
	}
	return string(raw)
}

func roleMetadata(u *userdomain.User, newRole userdomain.Role) string {
	raw, err := json.Marshal(map[string]string{
		"user_id":  u.ID,
		"old_role": string(u.Role),
		"new_role": string(newRole),
	})
	if err != nil {
		return ""
	}
	return string(raw)
}
