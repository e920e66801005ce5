// seed inserts development sample data for local testing. Run via go run ./cmd/seed.
// Idempotent: skips inserts if the dev owner (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"spades-sales-engine/backend/internal/config"
	"spades-sales-engine/backend/internal/db"
	invdomain "spades-sales-engine/backend/internal/invitation/domain"
	invrepo "spades-sales-engine/backend/internal/invitation/repository"
	orgdomain "spades-sales-engine/backend/internal/organization/domain"
	orgrepo "spades-sales-engine/backend/internal/organization/repository"
	"spades-sales-engine/backend/internal/security"
	userdomain "spades-sales-engine/backend/internal/user/domain"
	userrepo "spades-sales-engine/backend/internal/user/repository"
)

const (
	devOwnerEmail  = "dev@example.com"
	devMemberEmail = "member@example.com"
	devPassword    = "Password123!dev"
	devOrgID       = "dev-org-001"
	devOwnerID     = "dev-user-001"
	devMemberID    = "dev-user-002"
	devInviteID    = "dev-invite-001"
	devInviteToken = "dev-invite-token-0000000000000000000000000000000000000000000000"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	invites := invrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devOwnerEmail)
	if err != nil {
		log.Fatalf("seed: check dev owner: %v", err)
	}
	if existing != nil {
		fmt.Println("seed: dev data already present; nothing to do")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	now := time.Now().UTC()
	org := &orgdomain.Org{
		ID:   devOrgID,
		Name: "Dev Org",
		Settings: orgdomain.Settings{
			AllowedInviteDomains: []string{"example.com"},
			MaxMembers:           25,
		},
		CreatedAt: now,
	}
	if err := orgs.CreateOrganization(ctx, org); err != nil {
		log.Fatalf("seed: create org: %v", err)
	}

	owner := &userdomain.User{
		ID: devOwnerID, OrgID: devOrgID,
		Email: devOwnerEmail, Name: "Dev Owner",
		Role: userdomain.RoleOwner, PasswordHash: hash,
		Active: true, IsVerified: true,
		CreatedAt: now, UpdatedAt: now,
	}
	member := &userdomain.User{
		ID: devMemberID, OrgID: devOrgID,
		Email: devMemberEmail, Name: "Dev Member",
		Role: userdomain.RoleMember, PasswordHash: hash,
		Active: true, IsVerified: true,
		CreatedAt: now, UpdatedAt: now,
	}
	for _, u := range []*userdomain.User{owner, member} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("seed: create user %s: %v", u.Email, err)
		}
	}

	invite := &invdomain.Invitation{
		ID: devInviteID, OrgID: devOrgID,
		Email: "invited@example.com", Role: userdomain.RoleMember,
		Token:     devInviteToken,
		CreatedAt: now, ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	if err := invites.Create(ctx, invite); err != nil {
		log.Fatalf("seed: create invite: %v", err)
	}

	fmt.Println("seed: created dev org, owner, member, and a pending invite")
	fmt.Printf("seed: login %s / %s\n", devOwnerEmail, devPassword)
}
