package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"spades-sales-engine/backend/internal/identity/service"
	"spades-sales-engine/backend/internal/platform/rbac"
	"spades-sales-engine/backend/internal/server/httpx"
)

// Handler serves the auth endpoints.
type Handler struct {
	svc   *service.AuthService
	users rbac.UserGetter
}

// NewHandler returns an auth HTTP handler.
func NewHandler(svc *service.AuthService, users rbac.UserGetter) *Handler {
	return &Handler{svc: svc, users: users}
}

type registerRequest struct {
	OrganizationName string `json:"organizationName"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /api/auth/register. Creates the org and its owner
// and signs the owner in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	result, err := h.svc.Register(c.UserContext(), req.OrganizationName, req.Name, req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(authJSON(result))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	result, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(authJSON(result))
}

// Refresh handles POST /api/auth/refresh. Rotates the refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	result, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(authJSON(result))
}

// Logout handles POST /api/auth/logout. Succeeds even for unknown tokens.
func (h *Handler) Logout(c *fiber.Ctx) error {
	var req refreshRequest
	// Body is optional; a bearer-only logout sends none.
	_ = c.BodyParser(&req)
	if err := h.svc.Logout(c.UserContext(), req.RefreshToken); err != nil {
		log.Printf("auth: logout: %v", err)
		return httpx.Internal(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me. Returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgMember(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	return c.JSON(fiber.Map{
		"id":             actor.ID,
		"email":          actor.Email,
		"name":           actor.Name,
		"role":           actor.Role,
		"organizationId": actor.OrgID,
	})
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return httpx.Error(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return httpx.Error(c, fiber.StatusConflict, "USER_EXISTS", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return httpx.Error(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, service.ErrRefreshTokenReuse):
		return httpx.Error(c, fiber.StatusUnauthorized, "REFRESH_REUSE", err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return httpx.Error(c, fiber.StatusUnauthorized, "INVALID_REFRESH_TOKEN", err.Error())
	}
	log.Printf("auth: %v", err)
	return httpx.Internal(c)
}

func authJSON(r *service.AuthResult) fiber.Map {
	return fiber.Map{
		"accessToken":    r.AccessToken,
		"refreshToken":   r.RefreshToken,
		"expiresAt":      r.ExpiresAt.Format(time.RFC3339),
		"userId":         r.UserID,
		"organizationId": r.OrgID,
	}
}
