package domain

// Subject is the identity attached to a request. It is rebuilt from the
// session token on every request and never stored on its own.
type Subject struct {
	UserID    string `json:"user_id,omitempty"`
	Role      Role   `json:"role"`
	Validated bool   `json:"validated"`
}

// Anonymous is the subject of a request without a usable session token.
func Anonymous() Subject {
	return Subject{Role: RoleGuest}
}

func (s Subject) IsAnonymous() bool {
	return s.UserID == "" || s.Role == RoleGuest
}
