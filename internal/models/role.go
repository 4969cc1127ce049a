package models

import "strings"

// Role is the closed set of account roles a profile can hold.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleAdminFull      Role = "admin_full"
	RoleSuperAdmin     Role = "super_admin"
	RoleTeacherPrivate Role = "teacher_private"
	RoleTeacherPublic  Role = "teacher_public"
	RoleAssociation    Role = "association"
	RolePartner        Role = "partner"
	RoleB2CUser        Role = "b2c_user"
)

var knownRoles = []Role{
	RoleAdmin,
	RoleAdminFull,
	RoleSuperAdmin,
	RoleTeacherPrivate,
	RoleTeacherPublic,
	RoleAssociation,
	RolePartner,
	RoleB2CUser,
}

// KnownRoles returns every recognized role in declaration order.
func KnownRoles() []Role {
	roles := make([]Role, len(knownRoles))
	copy(roles, knownRoles)
	return roles
}

// AdminRoles returns the administrator family.
func AdminRoles() []Role {
	return []Role{RoleAdmin, RoleAdminFull, RoleSuperAdmin}
}

// ParseRole reports whether raw names a recognized role.
func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, role := range knownRoles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

func (role Role) IsKnown() bool {
	for _, known := range knownRoles {
		if role == known {
			return true
		}
	}
	return false
}

func (role Role) IsAdmin() bool {
	switch role {
	case RoleAdmin, RoleAdminFull, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// CanInviteAdmins is limited to full administrators.
func (role Role) CanInviteAdmins() bool {
	return role == RoleSuperAdmin || role == RoleAdminFull
}

func (role Role) IsTeacher() bool {
	return role == RoleTeacherPrivate || role == RoleTeacherPublic
}

func (role Role) String() string {
	return string(role)
}
