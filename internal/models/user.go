package models

import "strings"

type Role string

const (
	RoleUnknown  Role = ""
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole maps a server role string onto the known roles. Anything else is
// RoleUnknown.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleEmployee):
		return RoleEmployee
	default:
		return RoleUnknown
	}
}

func (r Role) Known() bool {
	return r == RoleAdmin || r == RoleEmployee
}

type User struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type Credentials struct {
	Username string
	Password string
}
