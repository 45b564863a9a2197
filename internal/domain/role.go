package domain

import (
	"errors"
	"fmt"
)

var ErrForbidden = errors.New("permission denied")

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}

	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) CanManageChallenges() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Authorize fails with ErrForbidden unless the identity holds one of the allowed roles.
func Authorize(identity Identity, allowed ...Role) error {
	for _, r := range allowed {
		if identity.Role == r {
			return nil
		}
	}

	return fmt.Errorf("user %d with role %q: %w", identity.UserID, identity.Role, ErrForbidden)
}
