package domain

// CanRemove reports whether actor may remove target from the team.
// Owners are never removable, nobody removes themselves, and admins
// cannot act on other admins.
func CanRemove(actor, target *User) bool {
	if actor.ID == target.ID {
		return false
	}
	if target.Role == RoleOwner {
		return false
	}
	if actor.Role == RoleAdmin && target.Role == RoleAdmin {
		return false
	}
	return actor.Role == RoleOwner || actor.Role == RoleAdmin
}

// CanChangeRole reports whether actor may change target's role to newRole.
// Only the owner changes roles, never their own, and ownership is not
// assignable through this path.
func CanChangeRole(actor, target *User, newRole Role) bool {
	if actor.Role != RoleOwner {
		return false
	}
	if actor.ID == target.ID {
		return false
	}
	return newRole.Assignable()
}

// CanViewRoster reports whether actor may list the team roster. Any
// member of the organization can.
func CanViewRoster(actor *User) bool {
	return actor != nil
}
