package domain

import "time"

// SessionToken is the encoded Subject handed to the client as a cookie value.
// The server keeps no copy; every request presents it again.
type SessionToken struct {
	Value     string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
