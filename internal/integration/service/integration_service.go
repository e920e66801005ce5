package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"spades-sales-engine/backend/internal/audit"
	"spades-sales-engine/backend/internal/integration/domain"
	userdomain "spades-sales-engine/backend/internal/user/domain"
	"spades-sales-engine/backend/internal/vault"
)

// ErrInvalidInput indicates a malformed request; handler maps it to 400.
var ErrInvalidInput = errors.New("invalid input")

// Repo is the minimal credential repository needed by the integration service.
type Repo interface {
	GetByOrgAndProvider(ctx context.Context, orgID, provider string) (*domain.Credential, error)
	Upsert(ctx context.Context, cred *domain.Credential) error
}

// ConnectionTester verifies a provider API key and returns the account
// holder's display label.
type ConnectionTester interface {
	Identity(ctx context.Context, apiKey string) (string, error)
}

// TestResult reports whether a provider key was accepted.
type TestResult struct {
	Valid         bool
	IdentityLabel string
}

// Status reports whether an org has a stored credential for the provider.
type Status struct {
	Connected   bool
	LastUpdated *time.Time
}

// IntegrationService manages encrypted CRM credentials per org.
type IntegrationService struct {
	repo     Repo
	vault    *vault.Vault
	crm      ConnectionTester
	auditLog audit.AuditLogger
}

// NewIntegrationService returns an IntegrationService with the given dependencies.
func NewIntegrationService(repo Repo, v *vault.Vault, crm ConnectionTester, auditLog audit.AuditLogger) *IntegrationService {
	return &IntegrationService{repo: repo, vault: v, crm: crm, auditLog: auditLog}
}

// Save encrypts apiKey and stores it for the actor's org, replacing any
// previous key for the provider.
func (s *IntegrationService) Save(ctx context.Context, actor *userdomain.User, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("%w: api key is required", ErrInvalidInput)
	}
	encrypted, err := s.vault.Encrypt(apiKey)
	if err != nil {
		return fmt.Errorf("encrypt api key: %w", err)
	}
	now := time.Now().UTC()
	cred := &domain.Credential{
		OrgID:     actor.OrgID,
		Provider:  domain.ProviderClose,
		APIKey:    encrypted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return err
	}
	s.auditLog.LogEvent(ctx, actor.OrgID, actor.ID, "CRM_CREDENTIALS_SAVED", "integration",
		`{"provider":"`+domain.ProviderClose+`"}`)
	return nil
}

// Test checks apiKey against the provider without storing it. A rejected
// key or transport failure yields Valid=false rather than an error, so
// callers can always return a verdict.
func (s *IntegrationService) Test(ctx context.Context, apiKey string) TestResult {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return TestResult{Valid: false}
	}
	label, err := s.crm.Identity(ctx, apiKey)
	if err != nil {
		log.Printf("integration: key test failed: %v", err)
		return TestResult{Valid: false}
	}
	return TestResult{Valid: true, IdentityLabel: label}
}

// ConnectionStatus reports whether the org has a stored provider credential
// and when it was last updated. The key itself is never returned.
func (s *IntegrationService) ConnectionStatus(ctx context.Context, orgID string) (Status, error) {
	cred, err := s.repo.GetByOrgAndProvider(ctx, orgID, domain.ProviderClose)
	if err != nil {
		return Status{}, err
	}
	if cred == nil {
		return Status{Connected: false}, nil
	}
	updated := cred.UpdatedAt
	return Status{Connected: true, LastUpdated: &updated}, nil
}
