package domain

import (
	"slices"
	"strings"
)

// Role is a member's role. Each role maps to a fixed permission set.
type Role string

// Member roles.
const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
	RoleFaculty Role = "FACULTY"
)

// Permission is a single capability checked at the API boundary.
type Permission string

// Permissions granted by roles.
const (
	PermAdminRead    Permission = "admin:read"
	PermAdminUpdate  Permission = "admin:update"
	PermAdminCreate  Permission = "admin:create"
	PermAdminDelete  Permission = "admin:delete"
	PermMemberRead   Permission = "member:read"
	PermMemberUpdate Permission = "member:update"
	PermMemberCreate Permission = "member:create"
	PermMemberDelete Permission = "member:delete"
)

var memberPermissions = []Permission{
	PermMemberRead,
	PermMemberUpdate,
	PermMemberCreate,
	PermMemberDelete,
}

var rolePermissions = map[Role][]Permission{
	RoleAdmin: append([]Permission{
		PermAdminRead,
		PermAdminUpdate,
		PermAdminCreate,
		PermAdminDelete,
	}, memberPermissions...),
	RoleStudent: memberPermissions,
	RoleFaculty: memberPermissions,
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := rolePermissions[r]
	return r, ok
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns a copy of the role's permission set.
func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

// Has reports whether the role grants p.
func (r Role) Has(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

// IsAdmin reports whether the role is ADMIN.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Member is a library patron or staff account. Email is the login identifier.
type Member struct {
	Audit
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

// IsAdmin reports whether the member has the ADMIN role.
func (m *Member) IsAdmin() bool {
	return m.Role.IsAdmin()
}

// Actor returns the audit actor for the member.
func (m *Member) Actor() Actor {
	return ActorFor(m.Email, m.Role)
}
