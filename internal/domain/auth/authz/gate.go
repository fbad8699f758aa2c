// Package authz turns session snapshots into routing decisions. Pure
// functions; rendering the decision (redirect, loading screen) is the
// transport layer's job.
package authz

import "github.com/foundrly/foundrly-client/internal/domain/auth/model"

type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// Loading means the session is still resolving; render a neutral
	// state instead of deciding prematurely.
	Loading
	// RedirectLogin sends the visitor to the unauthenticated entry point.
	RedirectLogin
	// RedirectHome sends an authenticated-but-unauthorized visitor to the
	// default landing page, not back to login.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unknown"
}

// RequireAuthenticated gates authenticated-only views.
func RequireAuthenticated(s model.Snapshot) Decision {
	if s.Loading {
		return Loading
	}
	if !s.Authenticated {
		return RedirectLogin
	}
	return Allow
}

// RequireRole gates role-restricted views: authenticated AND one of the
// allowed roles.
func RequireRole(s model.Snapshot, roles ...model.Role) Decision {
	if d := RequireAuthenticated(s); d != Allow {
		return d
	}
	for _, r := range roles {
		if s.User != nil && s.User.Role == r {
			return Allow
		}
	}
	return RedirectHome
}
