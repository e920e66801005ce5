package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Team route overrides: audit as member_removed, role_changed on resource "user".
const (
	teamRemoveMember = "DELETE /api/team/member/:id"
	teamChangeRole   = "PATCH /api/team/member/:id/role"
	teamRevokeInvite = "DELETE /api/team/invite/:id"
)

// ParseRoute returns action and resource for an HTTP method and route
// pattern (e.g. GET /api/team). Action is a verb: get, list, create,
// update, delete. Resource is the first path segment after /api.
// Team member and invite mutations are mapped to explicit action names
// so the audit trail reads as domain events.
func ParseRoute(method, route string) ActionResource {
	switch method + " " + route {
	case teamRemoveMember:
		return ActionResource{Action: "member_removed", Resource: "user"}
	case teamChangeRole:
		return ActionResource{Action: "role_changed", Resource: "user"}
	case teamRevokeInvite:
		return ActionResource{Action: "invite_revoked", Resource: "invite"}
	}
	resource := routeResource(route)
	return ActionResource{Action: methodToAction(method, route), Resource: resource}
}

func routeResource(route string) string {
	trimmed := strings.TrimPrefix(route, "/api/")
	if trimmed == route || trimmed == "" {
		return "unknown"
	}
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.TrimSuffix(trimmed, "s")
}

func methodToAction(method, route string) string {
	switch method {
	case "GET":
		// Collection routes read as list, parameterized ones as get.
		if strings.Contains(route, ":") {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
