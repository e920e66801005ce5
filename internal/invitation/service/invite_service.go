package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"spades-sales-engine/backend/internal/audit"
	"spades-sales-engine/backend/internal/cache"
	invdomain "spades-sales-engine/backend/internal/invitation/domain"
	"spades-sales-engine/backend/internal/notify"
	orgdomain "spades-sales-engine/backend/internal/organization/domain"
	"spades-sales-engine/backend/internal/policy/engine"
	"spades-sales-engine/backend/internal/security"
	sessiondomain "spades-sales-engine/backend/internal/session/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Sentinel errors for the invite service; handler maps them to HTTP statuses.
// Accept reports unknown, expired, and used tokens separately: the caller
// already holds the token, so distinguishing them leaks nothing. Validate
// keeps its uniform not-valid answer.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInviteUnknown = errors.New("invitation token is not recognized")
	ErrInviteExpired = errors.New("invitation has expired")
	ErrInviteUsed    = errors.New("invitation has already been used")
	ErrEmailMismatch = errors.New("email does not match the invitation")
	ErrUserExists    = errors.New("a user with this email already exists")
	ErrPolicyDenied  = errors.New("invite not allowed by organization policy")
	ErrNotFound      = errors.New("invitation not found")
)

// orgNameTTL bounds staleness of the cached org name on the public
// validation path.
const orgNameTTL = 5 * time.Minute

// InviteRepo is the minimal invitation repository needed by the invite service.
type InviteRepo interface {
	GetByToken(ctx context.Context, token string) (*invdomain.Invitation, error)
	GetByTokenForUpdate(ctx context.Context, token string) (*invdomain.Invitation, error)
	GetByIDInOrg(ctx context.Context, id, orgID string) (*invdomain.Invitation, error)
	ListPendingByOrg(ctx context.Context, orgID string) ([]*invdomain.Invitation, error)
	CountPendingByOrg(ctx context.Context, orgID string) (int64, error)
	Create(ctx context.Context, i *invdomain.Invitation) error
	MarkUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, id, orgID string) error
}

// UserRepo is the minimal user repository needed by the invite service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	CountByOrg(ctx context.Context, orgID string) (int64, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// OrgRepo is the minimal organization repository needed by the invite service.
type OrgRepo interface {
	GetOrganizationByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// SessionRepo is the minimal session repository needed by the invite service.
type SessionRepo interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
}

// TxRepos holds repositories bound to one database transaction.
type TxRepos struct {
	Invites InviteRepo
	Users   UserRepo
}

// Tx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Tx interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// ValidationResult is the outcome of validating an invite token.
type ValidationResult struct {
	Valid   bool
	Email   string
	OrgName string
	Role    userdomain.Role
}

// AcceptResult holds the session issued for a newly created user.
type AcceptResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	OrgID        string
}

// InviteService implements the invitation lifecycle: create, validate,
// accept, revoke.
type InviteService struct {
	tx         Tx
	invites    InviteRepo
	users      UserRepo
	orgs       OrgRepo
	sessions   SessionRepo
	policy     engine.Evaluator
	auditLog   audit.AuditLogger
	notifier   notify.Notifier
	orgNames   cache.Store
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	appBaseURL string
	inviteTTL  time.Duration
	refreshTTL time.Duration
}

// NewInviteService returns an InviteService with the given dependencies.
func NewInviteService(
	tx Tx,
	invites InviteRepo,
	users UserRepo,
	orgs OrgRepo,
	sessions SessionRepo,
	policy engine.Evaluator,
	auditLog audit.AuditLogger,
	notifier notify.Notifier,
	orgNames cache.Store,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	appBaseURL string,
	inviteTTL, refreshTTL time.Duration,
) *InviteService {
	return &InviteService{
		tx:         tx,
		invites:    invites,
		users:      users,
		orgs:       orgs,
		sessions:   sessions,
		policy:     policy,
		auditLog:   auditLog,
		notifier:   notifier,
		orgNames:   orgNames,
		hasher:     hasher,
		tokens:     tokens,
		appBaseURL: appBaseURL,
		inviteTTL:  inviteTTL,
		refreshTTL: refreshTTL,
	}
}

// Create issues a new invitation for the actor's organization and returns
// it with a shareable link. The actor must already be authorized as owner
// or admin. Policy (allowed domains, seat cap) is enforced here.
func (s *InviteService) Create(ctx context.Context, actor *userdomain.User, email string, role userdomain.Role) (*invdomain.Invitation, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if !role.Assignable() {
		return nil, "", fmt.Errorf("%w: role must be admin or member", ErrInvalidInput)
	}

	org, err := s.orgs.GetOrganizationByID(ctx, actor.OrgID)
	if err != nil {
		return nil, "", err
	}
	if org == nil {
		return nil, "", fmt.Errorf("organization %s not found", actor.OrgID)
	}

	members, err := s.users.CountByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, "", err
	}
	pending, err := s.invites.CountPendingByOrg(ctx, actor.OrgID)
	if err != nil {
		return nil, "", err
	}
	verdict, err := s.policy.EvaluateInvite(ctx, org, email, role, members+pending)
	if err != nil {
		return nil, "", err
	}
	if !verdict.Allowed {
		return nil, "", fmt.Errorf("%w: %s", ErrPolicyDenied, verdict.Reason)
	}

	token, err := generateToken()
	if err != nil {
		return nil, "", err
	}
	now := time.Now().UTC()
	inv := &invdomain.Invitation{
		ID:        uuid.New().String(),
		OrgID:     actor.OrgID,
		Email:     email,
		Role:      role,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.inviteTTL),
	}
	if err := inv.Validate(); err != nil {
		return nil, "", err
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return nil, "", err
	}

	link := s.inviteLink(token)
	s.auditLog.LogEvent(ctx, actor.OrgID, actor.ID, "CREATE_INVITE", "invite",
		inviteMetadata(inv))

	// Email delivery is best-effort; the link is returned to the caller
	// either way.
	if err := s.notifier.SendInvite(ctx, notify.InviteEmail{
		To:      email,
		OrgName: org.Name,
		Role:    string(role),
		Link:    link,
	}); err != nil {
		log.Printf("invite: email delivery to %s failed: %v", email, err)
	}

	return inv, link, nil
}

// Validate checks an invite token. It never mutates state and reports
// unknown, used, and expired tokens identically as not valid. Returns an
// error only for database failures.
func (s *InviteService) Validate(ctx context.Context, token string) (*ValidationResult, error) {
	if token == "" {
		return &ValidationResult{}, nil
	}
	inv, err := s.invites.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil || !inv.Pending(time.Now().UTC()) {
		return &ValidationResult{}, nil
	}
	orgName, err := s.orgName(ctx, inv.OrgID)
	if err != nil {
		return nil, err
	}
	return &ValidationResult{
		Valid:   true,
		Email:   inv.Email,
		OrgName: orgName,
		Role:    inv.Role,
	}, nil
}

// Accept redeems an invite token: creates the user bound to the
// invitation's org and role and marks the invitation used, atomically.
// If email is non-empty it must match the invitation. Returns a fresh
// session for the new user.
func (s *InviteService) Accept(ctx context.Context, token, name, password, email string) (*AcceptResult, error) {
	if token == "" {
		return nil, ErrInviteUnknown
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}

	var created *userdomain.User
	err = s.tx.Run(ctx, func(r TxRepos) error {
		inv, err := r.Invites.GetByTokenForUpdate(ctx, token)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if inv == nil {
			return ErrInviteUnknown
		}
		// Used wins over expired: a redeemed invite stays "used" after
		// its expiry passes.
		if inv.Used {
			return ErrInviteUsed
		}
		if !now.Before(inv.ExpiresAt) {
			return ErrInviteExpired
		}
		if email != "" && !strings.EqualFold(strings.TrimSpace(email), inv.Email) {
			return ErrEmailMismatch
		}
		existing, err := r.Users.GetByEmail(ctx, inv.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUserExists
		}
		u := &userdomain.User{
			ID:           uuid.New().String(),
			OrgID:        inv.OrgID,
			Email:        inv.Email,
			Name:         strings.TrimSpace(name),
			Role:         inv.Role,
			PasswordHash: hashed,
			Active:       true,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := u.Validate(); err != nil {
			return err
		}
		if err := r.Users.Create(ctx, u); err != nil {
			return err
		}
		if err := r.Invites.MarkUsed(ctx, inv.ID); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditLog.LogEvent(ctx, created.OrgID, created.ID, "ACCEPT_INVITE", "invite",
		userMetadata(created))

	return s.openSession(ctx, created)
}

// Revoke deletes a pending invitation in the actor's organization. A
// cross-tenant or unknown invitation fails with ErrNotFound.
func (s *InviteService) Revoke(ctx context.Context, actor *userdomain.User, inviteID string) error {
	inv, err := s.invites.GetByIDInOrg(ctx, inviteID, actor.OrgID)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if err := s.invites.Delete(ctx, inv.ID, actor.OrgID); err != nil {
		return err
	}
	s.auditLog.LogEvent(ctx, actor.OrgID, actor.ID, "REVOKE_INVITE", "invite",
		inviteMetadata(inv))
	return nil
}

// ListPending returns the org's outstanding invitations, oldest first.
func (s *InviteService) ListPending(ctx context.Context, orgID string) ([]*invdomain.Invitation, error) {
	return s.invites.ListPendingByOrg(ctx, orgID)
}

func (s *InviteService) openSession(ctx context.Context, u *userdomain.User) (*AcceptResult, error) {
	sessionID := uuid.New().String()
	refreshToken, jti, _, err := s.tokens.IssueRefresh(sessionID, u.ID, u.OrgID)
	if err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sessionID, u.ID, u.OrgID, string(u.Role))
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           u.ID,
		OrgID:            u.OrgID,
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refreshToken),
		ExpiresAt:        time.Now().UTC().Add(s.refreshTTL),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AcceptResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       u.ID,
		OrgID:        u.OrgID,
	}, nil
}

func (s *InviteService) orgName(ctx context.Context, orgID string) (string, error) {
	if name, ok := s.orgNames.Get(ctx, orgID); ok {
		return name, nil
	}
	org, err := s.orgs.GetOrganizationByID(ctx, orgID)
	if err != nil {
		return "", err
	}
	if org == nil {
		return "", nil
	}
	s.orgNames.Put(ctx, orgID, org.Name, time.Now().UTC().Add(orgNameTTL))
	return org.Name, nil
}

func (s *InviteService) inviteLink(token string) string {
	return strings.TrimSuffix(s.appBaseURL, "/") + "/invite/" + token
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func inviteMetadata(inv *invdomain.Invitation) string {
	raw, err := json.Marshal(map[string]string{
		"invite_id": inv.ID,
		"email":     inv.Email,
		"role":      string(inv.Role),
	})
	if err != nil {
		return ""
	}
	return string(raw)
}

func userMetadata(u *userdomain.User) string {
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

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	return nil
}
