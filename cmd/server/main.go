package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spades-sales-engine/backend/internal/audit"
	auditrepo "spades-sales-engine/backend/internal/audit/repository"
	"spades-sales-engine/backend/internal/cache"
	"spades-sales-engine/backend/internal/config"
	"spades-sales-engine/backend/internal/db"
	identityservice "spades-sales-engine/backend/internal/identity/service"
	"spades-sales-engine/backend/internal/integration/crm"
	integrationrepo "spades-sales-engine/backend/internal/integration/repository"
	integrationservice "spades-sales-engine/backend/internal/integration/service"
	invitationrepo "spades-sales-engine/backend/internal/invitation/repository"
	invitationservice "spades-sales-engine/backend/internal/invitation/service"
	"spades-sales-engine/backend/internal/notify"
	orgrepo "spades-sales-engine/backend/internal/organization/repository"
	"spades-sales-engine/backend/internal/policy/engine"
	"spades-sales-engine/backend/internal/security"
	"spades-sales-engine/backend/internal/server"
	"spades-sales-engine/backend/internal/server/middleware"
	sessionrepo "spades-sales-engine/backend/internal/session/repository"
	teamservice "spades-sales-engine/backend/internal/team/service"
	"spades-sales-engine/backend/internal/telemetry"
	telemetryotel "spades-sales-engine/backend/internal/telemetry/otel"
	userrepo "spades-sales-engine/backend/internal/user/repository"
	"spades-sales-engine/backend/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "spades-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey,
		cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	credVault, err := vault.New(cfg.EncryptionSecret)
	if err != nil {
		log.Fatalf("vault: %v", err)
	}

	users := userrepo.NewPostgresRepository(sqlDB)
	orgs := orgrepo.NewPostgresRepository(sqlDB)
	invites := invitationrepo.NewPostgresRepository(sqlDB)
	sessions := sessionrepo.NewPostgresRepository(sqlDB)
	integrations := integrationrepo.NewPostgresRepository(sqlDB)
	auditRepo := auditrepo.NewPostgresRepository(sqlDB)

	auditLog := audit.NewLogger(auditRepo, func(ctx context.Context) string {
		ip, ok := middleware.GetClientIP(ctx)
		if !ok || ip == "" {
			return "unknown"
		}
		return ip
	})

	policy := engine.NewOPAEvaluator()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.EmailAPIURL != "" {
		notifier = notify.NewEmailClient(cfg.EmailAPIURL, cfg.EmailAPIKey)
	}

	authService := identityservice.NewAuthService(
		identityservice.NewSQLTx(sqlDB), users, sessions, auditLog, hasher, tokens, cfg.RefreshTTL())
	inviteService := invitationservice.NewInviteService(
		invitationservice.NewSQLTx(sqlDB), invites, users, orgs, sessions,
		policy, auditLog, notifier, cache.NewMemoryStore(), hasher, tokens,
		cfg.AppBaseURL, cfg.InviteLifetime(), cfg.RefreshTTL())
	teamService := teamservice.NewTeamService(
		teamservice.NewSQLTx(sqlDB), users, invites, auditLog)
	integrationService := integrationservice.NewIntegrationService(
		integrations, credVault, crm.NewCloseClient(cfg.CRMBaseURL), auditLog)

	app := server.New(server.Deps{
		Tokens:              tokens,
		Users:               users,
		Auth:                authService,
		Invites:             inviteService,
		Team:                teamService,
		Integrations:        integrationService,
		AuditRepo:           auditRepo,
		HealthPinger:        sqlDB,
		HealthPolicyChecker: policy,
		Tracer:              providers.TracerProvider.Tracer("spades.http"),
		Meter:               providers.MeterProvider.Meter("spades.http"),
		Emitter:             telemetryotel.NewEventEmitter(providers.LoggerProvider),
	})

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}

	time.Sleep(telemetry.ShutdownDrainDuration)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
