package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"spades-sales-engine/backend/internal/audit"
	auditdomain "spades-sales-engine/backend/internal/audit/domain"
	auditrepo "spades-sales-engine/backend/internal/audit/repository"
)

// Audit returns middleware that records an audit log entry after each
// authenticated mutating request. Action and resource are derived from the
// method and route. skipRoutes holds "METHOD /route/path" entries to not
// audit. Writes are best-effort: failures are logged and do not fail the
// request. Anonymous requests are not audited.
func Audit(repo auditrepo.Repository, skipRoutes map[string]bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if !mutating(c.Method()) {
			return err
		}
		route := c.Route().Path
		if skipRoutes[c.Method()+" "+route] {
			return err
		}
		ctx := c.UserContext()
		orgID, _ := GetOrgID(ctx)
		if orgID == "" {
			return err
		}
		userID, _ := GetUserID(ctx)
		ip, _ := GetClientIP(ctx)
		if ip == "" {
			ip = "unknown"
		}
		ar := audit.ParseRoute(c.Method(), route)
		entry := &auditdomain.AuditLog{
			ID:        uuid.New().String(),
			OrgID:     orgID,
			UserID:    userID,
			Action:    ar.Action,
			Resource:  ar.Resource,
			IP:        ip,
			Metadata:  "",
			CreatedAt: time.Now().UTC(),
		}
		if createErr := repo.Create(ctx, entry); createErr != nil {
			log.Printf("audit: failed to create audit log: %v", createErr)
		}
		return err
	}
}

func mutating(method string) bool {
	switch method {
	case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		return true
	}
	return false
}
