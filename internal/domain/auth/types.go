package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role is the marketplace side a user chose during onboarding.
// The zero value means the user has not picked a role yet.
type Role string

const (
	RoleNone      Role = ""
	RoleJobseeker Role = "jobseeker"
	RoleEmployer  Role = "employer"
)

// Valid reports whether r is one of the selectable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleJobseeker, RoleEmployer:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role string and reports whether it is selectable.
func ParseRole(value string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	if r.Valid() {
		return r, true
	}
	return RoleNone, false
}

// Identity represents the verified principal returned by the identity provider
// once the phone/OTP flow has completed.
type Identity struct {
	UserID      string // stable subject identifier
	Phone       string
	DisplayName string
	ExpiresAt   time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier; it also keys the onboarding draft slot.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Role        Role      `json:"role,omitempty"`
	Language    string    `json:"language,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HasRole reports whether the session carries a chosen role.
func (s Session) HasRole() bool { return s.Role.Valid() }
