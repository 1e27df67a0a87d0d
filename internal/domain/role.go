package domain

import (
	"fmt"
	"strings"
)

// Role is a position in the total order guest < user < admin.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

var roleNames = [...]string{
	RoleGuest: "guest",
	RoleUser:  "user",
	RoleAdmin: "admin",
}

// ParseRole maps a stored or transported role name to its Role.
func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if strings.EqualFold(s, name) {
			return Role(r), nil
		}
	}
	return RoleGuest, fmt.Errorf("unknown role %q: %w", s, ErrBadRequest)
}

func (r Role) Valid() bool { return r >= RoleGuest && r <= RoleAdmin }

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Compare returns -1, 0 or +1 as r is below, equal to or above other.
func (r Role) Compare(other Role) int {
	switch {
	case r < other:
		return -1
	case r > other:
		return 1
	}
	return 0
}

// AtLeast reports whether r satisfies a requirement of min.
func (r Role) AtLeast(min Role) bool { return r.Compare(min) >= 0 }

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
