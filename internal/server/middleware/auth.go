package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"spades-sales-engine/backend/internal/security"
)

const bearerPrefix = "bearer "

// Auth returns middleware that validates the Bearer access token and puts
// user_id, org_id, and session_id on the request context. Requests without
// a valid token proceed anonymously; protected handlers reject them when
// they require an identity. The client IP is recorded for every request.
func Auth(tokens *security.TokenProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := WithClientIP(c.UserContext(), clientIP(c))
		if token := extractBearer(c.Get(fiber.HeaderAuthorization)); token != "" {
			if claims, err := tokens.ValidateAccess(token); err == nil {
				ctx = WithIdentity(ctx, claims.Subject, claims.OrgID, claims.SessionID)
			}
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// extractBearer returns the Bearer token from the Authorization header value,
// or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

// clientIP returns the client IP from forwarding headers or the connection,
// or "unknown".
func clientIP(c *fiber.Ctx) string {
	if s := strings.TrimSpace(c.Get("X-Forwarded-For")); s != "" {
		if i := strings.Index(s, ","); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
		return s
	}
	if s := strings.TrimSpace(c.Get("X-Real-Ip")); s != "" {
		return s
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
