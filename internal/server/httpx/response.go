// Package httpx holds the JSON response conventions shared by all HTTP handlers.
package httpx

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"spades-sales-engine/backend/internal/platform/rbac"
)

// Error writes a JSON error body with a machine-readable code and a
// human-readable message.
func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// Internal writes a generic 500 without leaking the underlying error.
func Internal(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
}

// AuthError maps an error returned by an rbac Require call: 401 for a
// missing or invalid identity, 403 for an insufficient role, and a generic
// 500 for anything else (e.g. a storage failure while resolving the actor).
func AuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		return Error(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.Is(err, rbac.ErrPermissionDenied):
		return Error(c, fiber.StatusForbidden, "FORBIDDEN", "permission denied")
	}
	return Internal(c)
}
