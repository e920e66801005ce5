package handler

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	auditdomain "spades-sales-engine/backend/internal/audit/domain"
	auditrepo "spades-sales-engine/backend/internal/audit/repository"
	"spades-sales-engine/backend/internal/platform/rbac"
	"spades-sales-engine/backend/internal/server/httpx"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Handler serves the audit log endpoints.
type Handler struct {
	repo  auditrepo.Repository
	users rbac.UserGetter
}

// NewHandler returns an audit HTTP handler.
func NewHandler(repo auditrepo.Repository, users rbac.UserGetter) *Handler {
	return &Handler{repo: repo, users: users}
}

// List handles GET /api/audit. Owner or admin; newest entries first.
// Query params: limit (default 50, capped at 200) and offset.
func (h *Handler) List(c *fiber.Ctx) error {
	actor, err := rbac.RequireOrgAdmin(c.UserContext(), h.users)
	if err != nil {
		return httpx.AuthError(c, err)
	}
	limit := queryInt32(c, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset := queryInt32(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	logs, err := h.repo.ListByOrg(c.UserContext(), actor.OrgID, limit, offset)
	if err != nil {
		log.Printf("audit: list: %v", err)
		return httpx.Internal(c)
	}
	entries := make([]fiber.Map, len(logs))
	for i, entry := range logs {
		entries[i] = entryJSON(entry)
	}
	return c.JSON(fiber.Map{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func queryInt32(c *fiber.Ctx, key string, def int32) int32 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return def
	}
	return int32(v)
}

func entryJSON(e *auditdomain.AuditLog) fiber.Map {
	return fiber.Map{
		"id":        e.ID,
		"userId":    e.UserID,
		"action":    e.Action,
		"resource":  e.Resource,
		"ip":        e.IP,
		"metadata":  e.Metadata,
		"createdAt": e.CreatedAt.Format(time.RFC3339),
	}
}
