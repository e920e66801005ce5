package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Every user belongs to exactly one
// organization and carries its role directly.
type User struct {
	ID           string
	OrgID        string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	Active       bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Assignable reports whether r may be granted to an existing user or
// through an invitation. Ownership is never granted this way.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleMember
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.OrgID == "" {
		return errors.New("organization is required")
	}
	if !u.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
