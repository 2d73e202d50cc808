package auth

import (
	"errors"
	"fmt"
)

// Role is the closed set of account roles. There is no hierarchy between
// roles: every endpoint enumerates the exact set it accepts, so listing
// ADMIN does not implicitly admit SUPER_ADMIN.
type Role string

const (
	RoleClient        Role = "CLIENT"
	RoleLawyer        Role = "LAWYER"
	RoleCoordinator   Role = "COORDINATOR"
	RoleAdmin         Role = "ADMIN"
	RoleSuperAdmin    Role = "SUPER_ADMIN"
	RoleKebeleManager Role = "KEBELE_MANAGER"
	RoleKebeleStaff   Role = "KEBELE_STAFF"
)

var validRoles = map[Role]struct{}{
	RoleClient:        {},
	RoleLawyer:        {},
	RoleCoordinator:   {},
	RoleAdmin:         {},
	RoleSuperAdmin:    {},
	RoleKebeleManager: {},
	RoleKebeleStaff:   {},
}

var ErrForbidden = errors.New("insufficient role")

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := validRoles[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Authorize reports whether role is one of the allowed roles.
func Authorize(role Role, allowed ...Role) error {
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return ErrForbidden
}
