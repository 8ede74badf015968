// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"fmt"
	"time"
)

// Role is the authorization level of a user account.
//
// WHY A NAMED TYPE?
// A plain string field lets any value slip through ("Admin", "root", ""). With a
// named type plus ParseRole, the only way to build a Role from untrusted input is
// through a check, and the rest of the code compares against the constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw string into a Role. An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleUser, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("model: unknown role %q", s)
	}
	return r, nil
}

// User represents a registered user account.
//
// PASSWORD HASH NEVER LEAVES THE SERVER:
// The `json:"-"` tag tells encoding/json to skip the field entirely, so even if a
// handler accidentally writes a whole User to the response, the hash is not included.
//
// GitHubID is zero for accounts created through the register endpoint and set for
// accounts created through GitHub sign-in.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	GitHubID     int64     `json:"githubId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PublicUser is the subset of User returned by the auth endpoints.
type PublicUser struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Public projects u onto PublicUser. withCreatedAt controls whether the creation
// timestamp is included (the "me" endpoint includes it, login/register do not).
func (u *User) Public(withCreatedAt bool) PublicUser {
	p := PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
	if withCreatedAt {
		created := u.CreatedAt
		p.CreatedAt = &created
	}
	return p
}
