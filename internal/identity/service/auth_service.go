package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"spades-sales-engine/backend/internal/audit"
	orgdomain "spades-sales-engine/backend/internal/organization/domain"
	"spades-sales-engine/backend/internal/security"
	"spades-sales-engine/backend/internal/server/middleware"
	sessiondomain "spades-sales-engine/backend/internal/session/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handler maps them to HTTP statuses.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
)

// AuthResult holds issued tokens plus the authenticated user and org.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
	OrgID        string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
}

// OrgRepo is the minimal organization repository needed by the auth service.
type OrgRepo interface {
	CreateOrganization(ctx context.Context, o *orgdomain.Org) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
	UpdateRefreshToken(ctx context.Context, sessionID, jti, refreshTokenHash string) error
}

// TxRepos holds repositories bound to one database transaction.
type TxRepos struct {
	Orgs  OrgRepo
	Users UserRepo
}

// Tx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Tx interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}

// AuthService implements register, login, refresh, and logout. Registration
// bootstraps a tenant: the organization and its owner are created in one
// transaction and the caller is signed in immediately.
type AuthService struct {
	tx         Tx
	users      UserRepo
	sessions   SessionRepo
	auditLog   audit.AuditLogger
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	refreshTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	tx Tx,
	users UserRepo,
	sessions SessionRepo,
	auditLog audit.AuditLogger,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		tx:         tx,
		users:      users,
		sessions:   sessions,
		auditLog:   auditLog,
		hasher:     hasher,
		tokens:     tokens,
		refreshTTL: refreshTTL,
	}
}

// Register creates an organization and its owner user atomically, then
// opens a session for the new owner.
func (s *AuthService) Register(ctx context.Context, orgName, name, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	orgName = strings.TrimSpace(orgName)
	if orgName == "" {
		return nil, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		OrgID:        uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         userdomain.RoleOwner,
		PasswordHash: hashed,
		Active:       true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	org := &orgdomain.Org{
		ID:        user.OrgID,
		Name:      orgName,
		CreatedAt: now,
	}
	err = s.tx.Run(ctx, func(r TxRepos) error {
		existing, err := r.Users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyRegistered
		}
		if err := r.Orgs.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return r.Users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	s.auditLog.LogEvent(ctx, org.ID, user.ID, "REGISTER", "organization",
		fmt.Sprintf(`{"organization":%q}`, org.Name))
	return s.openSession(ctx, user)
}

// Login authenticates with email and password and opens a session. The org
// comes from the user record; deactivated users are rejected the same way
// as a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// Refresh validates the refresh token, rotates it, and returns new tokens.
// A refresh with a stale jti means the token was already rotated: every
// session for that user is revoked and ErrRefreshTokenReuse is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if sess == nil || !sess.Active(now) {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != claims.ID {
		_ = s.sessions.RevokeAllByUser(ctx, claims.Subject)
		return nil, ErrRefreshTokenReuse
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidRefreshToken
	}
	_ = s.sessions.UpdateLastSeen(ctx, sess.ID, now)
	newRefresh, newJti, _, err := s.tokens.IssueRefresh(sess.ID, user.ID, user.OrgID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateRefreshToken(ctx, sess.ID, newJti, security.HashRefreshToken(newRefresh)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(sess.ID, user.ID, user.OrgID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		UserID:       user.ID,
		OrgID:        user.OrgID,
	}, nil
}

// Logout revokes the session identified by the refresh token or, when the
// token is empty, by the session id the auth middleware put in context.
// An unparseable token is a no-op so logout never fails the client.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		claims, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.sessions.Revoke(ctx, claims.SessionID)
	}
	sessionID, ok := middleware.GetSessionID(ctx)
	if !ok {
		return nil
	}
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *AuthService) openSession(ctx context.Context, u *userdomain.User) (*AuthResult, error) {
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
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		UserID:       u.ID,
		OrgID:        u.OrgID,
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		case r < '0' || (r > '9' && r < 'A') || (r > 'Z' && r < 'a') || r > 'z':
			hasSymbol = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSymbol {
		return errors.New("password must contain at least one symbol")
	}
	return nil
}
