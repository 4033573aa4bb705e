package model

import "fmt"

// Role is the closed set of account types.
type Role string

const (
	RoleDriver        Role = "driver"
	RoleSponsor       Role = "sponsor"
	RoleAdministrator Role = "administrator"
)

// ParseRole converts free text (JWT claims, request bodies) into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RoleSponsor, RoleAdministrator:
		return true
	default:
		return false
	}
}

// LandingPath is where a caller of this role is sent after a denied request.
func (r Role) LandingPath() string {
	switch r {
	case RoleAdministrator:
		return "/administrator/dashboard"
	case RoleSponsor:
		return "/sponsor/dashboard"
	case RoleDriver:
		return "/driver/dashboard"
	default:
		return "/"
	}
}

func (r Role) String() string { return string(r) }
