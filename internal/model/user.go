package model

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Roles lists the roles a user can register with.
func Roles() []Role {
	return []Role{RoleUser, RoleManager, RoleAdmin}
}

type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role,omitempty"`
}

// Session is the authenticated identity of the running client.
type Session struct {
	Token string
	User  User
	// ExpiresAt comes from the token's exp claim when the token is a JWT.
	// It is informational; the server is the only judge of validity.
	ExpiresAt time.Time
}

// Expired reports whether the token claims to have expired before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
