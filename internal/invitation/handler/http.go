package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	invdomain "spades-sales-engine/backend/internal/invitation/domain"
	"spades-sales-engine/backend/internal/invitation/service"
	"spades-sales-engine/backend/internal/platform/rbac"
	"spades-sales-engine/backend/internal/server/httpx"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Handler serves the invitation endpoints.
type Handler struct {
	svc   *service.InviteService
	users rbac.UserGetter
}

// NewHandler returns an invitation HTTP handler.
func NewHandler(svc *service.InviteService, users rbac.UserGetter) *Handler {
	return &Handler{svc: svc, users: users}
}

type createRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type acceptRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Create handles POST /api/invites/create. Owner or admin only.
func (h *Handler) Create(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgAdmin(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	inv, link, err := h.svc.Create(c.UserContext(), actor, req.Email, userdomain.Role(req.Role))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invite": inviteJSON(inv),
		"link":   link,
	})
}

// Validate handles GET /api/invites/validate/:token. Public and read-only.
func (h *Handler) Validate(c *fiber.Ctx) error {
	res, err := h.svc.Validate(c.UserContext(), c.Params("token"))
	if err != nil {
		log.Printf("invite: validate failed: %v", err)
		return httpx.Internal(c)
	}
	if !res.Valid {
		return c.JSON(fiber.Map{"valid": false})
	}
	return c.JSON(fiber.Map{
		"valid":            true,
		"email":            res.Email,
		"organizationName": res.OrgName,
		"role":             res.Role,
	})
}

// Accept handles POST /api/invites/accept. Public; creates the user and
// returns a session.
func (h *Handler) Accept(c *fiber.Ctx) error {
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	res, err := h.svc.Accept(c.UserContext(), req.Token, req.Name, req.Password, req.Email)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"accessToken":    res.AccessToken,
		"refreshToken":   res.RefreshToken,
		"expiresAt":      res.ExpiresAt.Format(time.RFC3339),
		"userId":         res.UserID,
		"organizationId": res.OrgID,
	})
}

// Revoke handles DELETE /api/team/invite/:id. Owner or admin only.
func (h *Handler) Revoke(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgAdmin(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	if err := h.svc.Revoke(c.UserContext(), actor, c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return httpx.Error(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrInviteUnknown):
		return httpx.Error(c, fiber.StatusBadRequest, "INVALID_TOKEN", err.Error())
	case errors.Is(err, service.ErrInviteExpired):
		return httpx.Error(c, fiber.StatusGone, "INVITE_EXPIRED", err.Error())
	case errors.Is(err, service.ErrInviteUsed):
		return httpx.Error(c, fiber.StatusConflict, "INVITE_USED", err.Error())
	case errors.Is(err, service.ErrEmailMismatch):
		return httpx.Error(c, fiber.StatusForbidden, "EMAIL_MISMATCH", err.Error())
	case errors.Is(err, service.ErrUserExists):
		return httpx.Error(c, fiber.StatusConflict, "USER_EXISTS", err.Error())
	case errors.Is(err, service.ErrPolicyDenied):
		return httpx.Error(c, fiber.StatusForbidden, "POLICY_DENIED", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return httpx.Error(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	}
	log.Printf("invite: %v", err)
	return httpx.Internal(c)
}

func inviteJSON(inv *invdomain.Invitation) fiber.Map {
	return fiber.Map{
		"id":        inv.ID,
		"email":     inv.Email,
		"role":      inv.Role,
		"createdAt": inv.CreatedAt.Format(time.RFC3339),
		"expiresAt": inv.ExpiresAt.Format(time.RFC3339),
	}
}
