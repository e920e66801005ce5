package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	audithandler "spades-sales-engine/backend/internal/audit/handler"
	auditrepo "spades-sales-engine/backend/internal/audit/repository"
	healthhandler "spades-sales-engine/backend/internal/health/handler"
	identityhandler "spades-sales-engine/backend/internal/identity/handler"
	identityservice "spades-sales-engine/backend/internal/identity/service"
	integrationhandler "spades-sales-engine/backend/internal/integration/handler"
	integrationservice "spades-sales-engine/backend/internal/integration/service"
	invitationhandler "spades-sales-engine/backend/internal/invitation/handler"
	invitationservice "spades-sales-engine/backend/internal/invitation/service"
	"spades-sales-engine/backend/internal/platform/rbac"
	"spades-sales-engine/backend/internal/security"
	"spades-sales-engine/backend/internal/server/httpx"
	"spades-sales-engine/backend/internal/server/middleware"
	teamhandler "spades-sales-engine/backend/internal/team/handler"
	teamservice "spades-sales-engine/backend/internal/team/service"
	"spades-sales-engine/backend/internal/telemetry"
)

// Deps holds the wired services and repositories for the HTTP app.
type Deps struct {
	// Tokens validates Bearer access tokens for the auth middleware.
	Tokens *security.TokenProvider
	// Users resolves request identities to user records for authorization.
	Users rbac.UserGetter
	// Auth is the auth service behind /api/auth.
	Auth *identityservice.AuthService
	// Invites is the invitation service behind /api/invites and invite revocation.
	Invites *invitationservice.InviteService
	// Team is the team service behind /api/team.
	Team *teamservice.TeamService
	// Integrations is the CRM credential service behind /api/integrations.
	Integrations *integrationservice.IntegrationService
	// AuditRepo backs GET /api/audit and the request audit middleware.
	AuditRepo auditrepo.Repository
	// HealthPinger is used for readiness (e.g. *sql.DB). Nil skips the DB check.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used for readiness (e.g. the policy evaluator). Nil skips it.
	HealthPolicyChecker healthhandler.PolicyChecker
	// Tracer, Meter, and Emitter carry request telemetry. Any may be nil.
	Tracer  trace.Tracer
	Meter   metric.Meter
	Emitter telemetry.EventEmitter
}

// New builds the fiber app with all middleware and routes registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(middleware.Telemetry(deps.Tracer, deps.Meter, deps.Emitter, map[string]bool{
		"GET /api/health": true,
	}))
	app.Use(middleware.Auth(deps.Tokens))
	if deps.AuditRepo != nil {
		app.Use(middleware.Audit(deps.AuditRepo, map[string]bool{
			"POST /api/auth/refresh": true,
			"POST /api/auth/logout":  true,
		}))
	}

	health := healthhandler.NewHandler(deps.HealthPinger, deps.HealthPolicyChecker)
	app.Get("/api/health", health.Check)

	auth := identityhandler.NewHandler(deps.Auth, deps.Users)
	app.Post("/api/auth/register", auth.Register)
	app.Post("/api/auth/login", auth.Login)
	app.Post("/api/auth/refresh", auth.Refresh)
	app.Post("/api/auth/logout", auth.Logout)
	app.Get("/api/auth/me", auth.Me)

	team := teamhandler.NewHandler(deps.Team, deps.Users)
	app.Get("/api/team", team.Roster)
	app.Delete("/api/team/member/:id", team.RemoveMember)
	app.Patch("/api/team/member/:id/role", team.ChangeRole)

	invites := invitationhandler.NewHandler(deps.Invites, deps.Users)
	app.Post("/api/invites/create", invites.Create)
	app.Get("/api/invites/validate/:token", invites.Validate)
	app.Post("/api/invites/accept", invites.Accept)
	app.Delete("/api/team/invite/:id", invites.Revoke)

	integrations := integrationhandler.NewHandler(deps.Integrations, deps.Users)
	app.Post("/api/integrations/close/save", integrations.Save)
	app.Post("/api/integrations/close/test", integrations.Test)
	app.Get("/api/integrations/close/status", integrations.Status)

	auditLogs := audithandler.NewHandler(deps.AuditRepo, deps.Users)
	app.Get("/api/audit", auditLogs.List)

	return app
}

// errorHandler renders unhandled and routing errors in the JSON envelope
// the handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "BAD_REQUEST"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusInternalServerError:
			return httpx.Internal(c)
		}
		return httpx.Error(c, fe.Code, code, fe.Message)
	}
	return httpx.Internal(c)
}
