package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"spades-sales-engine/backend/internal/integration/service"
	"spades-sales-engine/backend/internal/platform/rbac"
	"spades-sales-engine/backend/internal/server/httpx"
)

// Handler serves the CRM integration endpoints.
type Handler struct {
	svc   *service.IntegrationService
	users rbac.UserGetter
}

// NewHandler returns an integration HTTP handler.
func NewHandler(svc *service.IntegrationService, users rbac.UserGetter) *Handler {
	return &Handler{svc: svc, users: users}
}

type saveRequest struct {
	APIKey string `json:"apiKey"`
}

// Save handles POST /api/integrations/close/save. Owner or admin.
func (h *Handler) Save(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgAdmin(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if err := h.svc.Save(c.UserContext(), actor, req.APIKey); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return httpx.Error(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
		}
		log.Printf("integration: save: %v", err)
		return httpx.Internal(c)
	}
	return c.JSON(fiber.Map{"status": "saved"})
}

// Test handles POST /api/integrations/close/test. Owner or admin. The
// verdict is always 200; a bad key shows up as valid=false.
func (h *Handler) Test(c *fiber.Ctx) error {
	if _, err := rbac.RequireOrgAdmin(c.UserContext(), h.users); err != nil {
		return httpx.AuthError(c, err)
	}
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	result := h.svc.Test(c.UserContext(), req.APIKey)
	if !result.Valid {
		return c.JSON(fiber.Map{"valid": false, "error": "Invalid API Key"})
	}
	return c.JSON(fiber.Map{"valid": true, "user": result.IdentityLabel})
}

// Status handles GET /api/integrations/close/status. Any org member.
func (h *Handler) Status(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgMember(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	status, err := h.svc.ConnectionStatus(c.UserContext(), actor.OrgID)
	if err != nil {
		log.Printf("integration: status: %v", err)
		return httpx.Internal(c)
	}
	if !status.Connected {
		return c.JSON(fiber.Map{"connected": false})
	}
	return c.JSON(fiber.Map{
		"connected":   true,
		"lastUpdated": status.LastUpdated.Format(time.RFC3339),
	})
}
