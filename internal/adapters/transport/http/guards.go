package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foundrly/foundrly-client/internal/domain/auth/authz"
	"github.com/foundrly/foundrly-client/internal/domain/auth/model"
)

// SnapshotProvider is the read side of the session; the gateway never
// mutates session state directly.
type SnapshotProvider interface {
	Snapshot() model.Snapshot
}

func renderDecision(c *gin.Context, d authz.Decision) bool {
	switch d {
	case authz.Allow:
		return true
	case authz.Loading:
		// Neutral answer while the session resolves; no premature
		// redirect.
		c.AbortWithStatusJSON(http.StatusOK, gin.H{"status": "loading"})
	case authz.RedirectLogin:
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	case authz.RedirectHome:
		c.Redirect(http.StatusFound, "/dashboard")
		c.Abort()
	}
	return false
}

func RequireAuth(sess SnapshotProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if renderDecision(c, authz.RequireAuthenticated(sess.Snapshot())) {
			c.Next()
		}
	}
}

func RequireRoles(sess SnapshotProvider, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if renderDecision(c, authz.RequireRole(sess.Snapshot(), roles...)) {
			c.Next()
		}
	}
}

// redirectIfAuthenticated keeps signed-in visitors off the auth pages.
func redirectIfAuthenticated(sess SnapshotProvider, page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sess.Snapshot()
		if !snap.Loading && snap.Authenticated {
			c.Redirect(http.StatusFound, "/dashboard")
			return
		}
		c.JSON(http.StatusOK, gin.H{"page": page})
	}
}
