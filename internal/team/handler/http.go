package handler

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	invdomain "spades-sales-engine/backend/internal/invitation/domain"
	"spades-sales-engine/backend/internal/platform/rbac"
	"spades-sales-engine/backend/internal/server/httpx"
	"spades-sales-engine/backend/internal/team/service"
	userdomain "spades-sales-engine/backend/internal/user/domain"
)

// Handler serves the team endpoints.
type Handler struct {
	svc   *service.TeamService
	users rbac.UserGetter
}

// NewHandler returns a team HTTP handler.
func NewHandler(svc *service.TeamService, users rbac.UserGetter) *Handler {
	return &Handler{svc: svc, users: users}
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// Roster handles GET /api/team. Any org member.
func (h *Handler) Roster(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgMember(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	roster, err := h.svc.Roster(c.UserContext(), actor)
	if err != nil {
		return h.writeError(c, err)
	}

	members := make([]fiber.Map, len(roster.Members))
	for i, m := range roster.Members {
		members[i] = memberJSON(m)
	}
	invites := make([]fiber.Map, len(roster.Invites))
	for i, inv := range roster.Invites {
		invites[i] = inviteJSON(inv)
	}
	return c.JSON(fiber.Map{
		"members": members,
		"invites": invites,
	})
}

// RemoveMember handles DELETE /api/team/member/:id. Owner or admin,
// subject to role rules re-checked in the service.
func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgAdmin(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	if err := h.svc.RemoveMember(c.UserContext(), actor, c.Params("id")); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangeRole handles PATCH /api/team/member/:id/role. Owner only.
func (h *Handler) ChangeRole(c *fiber.Ctx) error {
	actor, err := rbac.RequireOwner(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	var req changeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if err := h.svc.ChangeRole(c.UserContext(), actor, c.Params("id"), userdomain.Role(req.Role)); err != nil {
		return h.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return httpx.Error(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrSelfAction):
		return httpx.Error(c, fiber.StatusBadRequest, "SELF_ACTION", err.Error())
	case errors.Is(err, service.ErrForbidden):
		return httpx.Error(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return httpx.Error(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	}
	log.Printf("team: %v", err)
	return httpx.Internal(c)
}

func memberJSON(u *userdomain.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"active":    u.Active,
		"createdAt": u.CreatedAt.Format(time.RFC3339),
	}
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
