package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks database connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks policy engine readiness.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler serves GET /api/health for load balancers and CI.
type Handler struct {
	db     Pinger
	policy PolicyChecker
}

// NewHandler returns a health handler. Either dependency may be nil; a nil
// dependency is treated as healthy.
func NewHandler(db Pinger, policy PolicyChecker) *Handler {
	return &Handler{db: db, policy: policy}
}

// Check reports overall health. A failing dependency yields 503 with the
// failing component named; the response never carries error details.
func (h *Handler) Check(c *fiber.Ctx) error {
	ctx := c.UserContext()
	checks := fiber.Map{}
	healthy := true

	dbStatus := "ok"
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			dbStatus = "unavailable"
			healthy = false
		}
	}
	checks["database"] = dbStatus

	policyStatus := "ok"
	if h.policy != nil {
		if err := h.policy.HealthCheck(ctx); err != nil {
			policyStatus = "unavailable"
			healthy = false
		}
	}
	checks["policy"] = policyStatus

	status := fiber.StatusOK
	overall := "ok"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
	})
}
