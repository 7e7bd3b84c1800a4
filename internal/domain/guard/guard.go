// Package guard decides where a user may go given their session and profile.
// Decide is pure; callers own the navigation side effect.
package guard

import (
	"slices"
	"strings"

	domainauth "github.com/rithish08/fyke-connect-india-sub001/internal/domain/auth"
	"github.com/rithish08/fyke-connect-india-sub001/internal/domain/profile"
)

// Route paths known to the guard.
const (
	PathLanguage      = "/language"
	PathLogin         = "/login"
	PathOTPVerify     = "/otp"
	PathRoleSelection = "/role-selection"
	PathProfileSetup  = "/profile-setup"
	PathHome          = "/home"
)

//nolint:gochecknoglobals // fixed route table
var publicPaths = []string{PathLanguage, PathLogin, PathOTPVerify}

// PublicPaths returns the routes reachable without a session.
func PublicPaths() []string { return slices.Clone(publicPaths) }

// Action is what the caller should do with the current route.
type Action string

const (
	ActionStay     Action = "stay"
	ActionRedirect Action = "redirect"
)

// Reason explains a decision; redirect reasons are reported to the audit sink.
type Reason string

const (
	ReasonLoading               Reason = "loading"
	ReasonAllowed               Reason = "allowed"
	ReasonUnauthenticated       Reason = "unauthenticated"
	ReasonAuthenticatedOnPublic Reason = "authenticated_on_public"
	ReasonRoleMissing           Reason = "role_missing"
	ReasonRoleAlreadySet        Reason = "role_already_set"
	ReasonProfileComplete       Reason = "profile_complete"
	ReasonProfileIncomplete     Reason = "profile_incomplete"
)

// Snapshot is everything the guard reads about the current user.
type Snapshot struct {
	Authenticated bool
	// Loading is true until the session and profile have been resolved.
	Loading bool
	UserID  string
	Role    domainauth.Role
	Profile profile.Profile
}

// Decision is the outcome of Decide.
type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
	Reason Reason `json:"reason"`
}

// IsRedirect reports whether the decision requires navigation.
func (d Decision) IsRedirect() bool { return d.Action == ActionRedirect }

func stay(reason Reason) Decision { return Decision{Action: ActionStay, Reason: reason} }

func redirect(target string, reason Reason) Decision {
	return Decision{Action: ActionRedirect, Target: target, Reason: reason}
}

// Decide applies the access rules in priority order; the first match wins.
// It never navigates while the snapshot is loading.
func Decide(s Snapshot, currentPath string) Decision {
	path := NormalizePath(currentPath)

	if s.Loading {
		return stay(ReasonLoading)
	}

	public := IsPublic(path)
	if !s.Authenticated {
		if !public {
			return redirect(PathLanguage, ReasonUnauthenticated)
		}
		return stay(ReasonAllowed)
	}
	if public {
		return redirect(PathHome, ReasonAuthenticatedOnPublic)
	}

	// Role must be chosen before anything else is evaluated.
	if !s.Role.Valid() {
		if path != PathRoleSelection {
			return redirect(PathRoleSelection, ReasonRoleMissing)
		}
		return stay(ReasonAllowed)
	}
	if path == PathRoleSelection {
		return redirect(PathHome, ReasonRoleAlreadySet)
	}

	p := s.Profile
	p.Role = s.Role
	complete := profile.IsComplete(p)
	inSetup := IsProfileSetup(path)
	switch {
	case complete && inSetup:
		return redirect(PathHome, ReasonProfileComplete)
	case !complete && !inSetup:
		return redirect(PathProfileSetup, ReasonProfileIncomplete)
	default:
		return stay(ReasonAllowed)
	}
}

// IsPublic reports whether path is one of the unauthenticated routes.
func IsPublic(path string) bool {
	return slices.Contains(publicPaths, NormalizePath(path))
}

// IsProfileSetup reports whether path is the profile-setup route or below it.
func IsProfileSetup(path string) bool {
	path = NormalizePath(path)
	return path == PathProfileSetup || strings.HasPrefix(path, PathProfileSetup+"/")
}

// NormalizePath strips query, fragment and trailing slashes; empty becomes "/".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
