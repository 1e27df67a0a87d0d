// Package policy decides whether a subject may perform an action. It has no
// I/O and no state.
package policy

import (
	"fmt"

	"github.com/go-kanban/internal/domain"
)

// IsAllowed reports whether role meets required in the order guest < user < admin.
func IsAllowed(role, required domain.Role) bool {
	return role.AtLeast(required)
}

// Authorize returns nil when s may access a route that requires required.
// A guest below the requirement gets ErrUnauthenticated, anyone else below
// it gets ErrForbidden.
func Authorize(s domain.Subject, required domain.Role) error {
	if IsAllowed(s.Role, required) {
		return nil
	}
	if s.IsAnonymous() {
		return fmt.Errorf("%s required: %w", required, domain.ErrUnauthenticated)
	}
	return fmt.Errorf("%s required, have %s: %w", required, s.Role, domain.ErrForbidden)
}

// CanModifyTask allows the task owner and admins.
func CanModifyTask(s domain.Subject, t *domain.Task) bool {
	if s.IsAnonymous() {
		return false
	}
	return s.Role.AtLeast(domain.RoleAdmin) || (s.Role.AtLeast(domain.RoleUser) && t.OwnerID == s.UserID)
}
