package models

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var Roles = []Role{RoleUser, RoleAdmin}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts the role name in any case.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Permission names an action a role may perform.
type Permission string

const (
	PermissionManageUsers Permission = "users:manage"
	PermissionDeleteUsers Permission = "users:delete"
	PermissionChangeRoles Permission = "users:change_role"
	PermissionManageTasks Permission = "tasks:manage"
	PermissionViewReports Permission = "analytics:view"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionManageUsers,
		PermissionDeleteUsers,
		PermissionChangeRoles,
		PermissionManageTasks,
		PermissionViewReports,
	},
	RoleUser: {
		PermissionManageTasks,
		PermissionViewReports,
	},
}

func (r Role) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
