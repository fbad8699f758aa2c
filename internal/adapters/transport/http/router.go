// Package http is the local gateway: the route table of the platform's web
// client, with the authorization gate applied at the routing layer and
// /api/* proxied through the authenticated pipeline.
package http

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/foundrly/foundrly-client/internal/adapters/transport/http/middleware"
	"github.com/foundrly/foundrly-client/internal/domain/auth/model"
)

// Forwarder relays a request through the authenticated API client.
type Forwarder interface {
	Forward(ctx context.Context, method, path string, body []byte) (int, []byte, error)
}

const (
	discoveryCacheSize = 256
	discoveryCacheTTL  = 30 * time.Second
)

// Public read-only discovery endpoints whose responses are worth caching.
var discoveryPrefixes = []string{
	"/api/marketplace",
	"/api/collaborations",
	"/api/stats",
	"/api/search",
}

type cacheEntry struct {
	status  int
	body    []byte
	expires time.Time
}

type Gateway struct {
	sess    SnapshotProvider
	forward Forwarder
	log     *zap.Logger
	cache   *lru.Cache[string, cacheEntry]
}

func NewGateway(sess SnapshotProvider, fw Forwarder, log *zap.Logger) *Gateway {
	cache, _ := lru.New[string, cacheEntry](discoveryCacheSize)
	return &Gateway{sess: sess, forward: fw, log: log, cache: cache}
}

// Router builds the gin engine with the SPA's route table.
func (g *Gateway) Router(allowedOrigins []string, allowCredentials bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(g.log))

	if len(allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
			AllowCredentials: allowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Auth pages: signed-in visitors bounce to the dashboard.
	router.GET("/login", redirectIfAuthenticated(g.sess, "login"))
	router.GET("/signup", redirectIfAuthenticated(g.sess, "signup"))
	router.GET("/verify-email", redirectIfAuthenticated(g.sess, "verify-email"))

	// Authenticated-only views. The discovery pages are gated even though
	// the /api discovery endpoints themselves are public.
	authed := router.Group("/", RequireAuth(g.sess))
	for _, page := range []string{
		"dashboard", "profile", "messages", "settings",
		"marketplace", "collaboration", "search",
	} {
		authed.GET("/"+page, g.page(page))
	}
	authed.GET("/startupdetail/:id", g.page("startup-detail"))

	// Role-restricted views.
	entrepreneur := router.Group("/", RequireRoles(g.sess, model.RoleEntrepreneur))
	entrepreneur.GET("/startups/new", g.page("create-startup"))
	entrepreneur.GET("/positions/manage", g.page("position-management"))

	investor := router.Group("/", RequireRoles(g.sess, model.RoleInvestor))
	investor.GET("/investor", g.page("investor-dashboard"))

	student := router.Group("/", RequireRoles(g.sess, model.RoleStudent))
	student.GET("/applications", g.page("my-applications"))

	// Everything under /api rides the authenticated pipeline to the
	// remote API.
	router.Any("/api/*path", g.proxy)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	return router
}

func (g *Gateway) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := g.sess.Snapshot()
		out := gin.H{"page": name}
		if snap.User != nil {
			out["user"] = snap.User
		}
		c.JSON(http.StatusOK, out)
	}
}

func cacheable(method, path string) bool {
	if method != http.MethodGet {
		return false
	}
	for _, p := range discoveryPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *Gateway) proxy(c *gin.Context) {
	path := c.Request.URL.Path
	if c.Request.URL.RawQuery != "" {
		path += "?" + c.Request.URL.RawQuery
	}

	if cacheable(c.Request.Method, c.Request.URL.Path) {
		if entry, ok := g.cache.Get(path); ok && time.Now().Before(entry.expires) {
			c.Data(entry.status, "application/json", entry.body)
			return
		}
	}

	var body []byte
	if c.Request.Body != nil {
		var err error
		if body, err = io.ReadAll(c.Request.Body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read request body"})
			return
		}
	}

	status, payload, err := g.forward.Forward(c.Request.Context(), c.Request.Method, path, body)
	if err != nil {
		g.log.Warn("proxy request failed",
			zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream unavailable"})
		return
	}

	if cacheable(c.Request.Method, c.Request.URL.Path) && status == http.StatusOK {
		g.cache.Add(path, cacheEntry{
			status:  status,
			body:    payload,
			expires: time.Now().Add(discoveryCacheTTL),
		})
	}

	c.Data(status, "application/json", payload)
}
