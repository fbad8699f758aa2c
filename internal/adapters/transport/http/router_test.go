package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	gateway "github.com/foundrly/foundrly-client/internal/adapters/transport/http"
	"github.com/foundrly/foundrly-client/internal/domain/auth/model"
)

type sessStub struct {
	mu   sync.Mutex
	snap model.Snapshot
}

func (s *sessStub) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *sessStub) set(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}

type forwardStub struct {
	mu     sync.Mutex
	calls  int
	status int
	body   []byte
	err    error
}

func (f *forwardStub) Forward(_ context.Context, method, path string, body []byte) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.status, f.body, f.err
}

func (f *forwardStub) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func authedAs(role model.Role) model.Snapshot {
	return model.Snapshot{
		User:          &model.User{ID: "u1", Username: "ada", Role: role, EmailVerified: true},
		Authenticated: true,
	}
}

func newRouter(sess *sessStub, fw *forwardStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gateway.NewGateway(sess, fw, zap.NewNop()).Router(nil, false)
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnonymousVisitorRedirectsToLogin(t *testing.T) {
	router := newRouter(&sessStub{}, &forwardStub{})

	rec := get(t, router, "/dashboard")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoadingSessionRendersNeutralState(t *testing.T) {
	sess := &sessStub{}
	sess.set(model.Snapshot{Loading: true})
	router := newRouter(sess, &forwardStub{})

	rec := get(t, router, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"loading"}`, rec.Body.String())
}

func TestAuthenticatedUserReachesDashboard(t *testing.T) {
	sess := &sessStub{}
	sess.set(authedAs(model.RoleStudent))
	router := newRouter(sess, &forwardStub{})

	rec := get(t, router, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"page":"dashboard"`)
	require.Contains(t, rec.Body.String(), `"username":"ada"`)
}

func TestDiscoveryPagesRequireAuth(t *testing.T) {
	router := newRouter(&sessStub{}, &forwardStub{})

	for _, path := range []string{"/marketplace", "/collaboration", "/search", "/startupdetail/s1"} {
		rec := get(t, router, path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	sess := &sessStub{}
	sess.set(authedAs(model.RoleStudent))
	router = newRouter(sess, &forwardStub{})

	for _, path := range []string{"/marketplace", "/collaboration", "/search", "/startupdetail/s1"} {
		rec := get(t, router, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestWrongRoleRedirectsHomeNotLogin(t *testing.T) {
	sess := &sessStub{}
	sess.set(authedAs(model.RoleStudent))
	router := newRouter(sess, &forwardStub{})

	rec := get(t, router, "/investor")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestRoleRoutesAdmitTheirRole(t *testing.T) {
	cases := []struct {
		role model.Role
		path string
	}{
		{model.RoleEntrepreneur, "/startups/new"},
		{model.RoleEntrepreneur, "/positions/manage"},
		{model.RoleInvestor, "/investor"},
		{model.RoleStudent, "/applications"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			sess := &sessStub{}
			sess.set(authedAs(tc.role))
			router := newRouter(sess, &forwardStub{})

			rec := get(t, router, tc.path)
			require.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestSignedInVisitorBouncesOffAuthPages(t *testing.T) {
	sess := &sessStub{}
	sess.set(authedAs(model.RoleStudent))
	router := newRouter(sess, &forwardStub{})

	for _, path := range []string{"/login", "/signup", "/verify-email"} {
		rec := get(t, router, path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	}
}

func TestAnonymousVisitorSeesAuthPages(t *testing.T) {
	router := newRouter(&sessStub{}, &forwardStub{})

	rec := get(t, router, "/login")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"page":"login"}`, rec.Body.String())
}

func TestProxyRelaysUpstreamStatus(t *testing.T) {
	fw := &forwardStub{status: http.StatusCreated, body: []byte(`{"id":"s1"}`)}
	router := newRouter(&sessStub{}, fw)

	req := httptest.NewRequest(http.MethodPost, "/api/startups", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"id":"s1"}`, rec.Body.String())
	require.Equal(t, 1, fw.callCount())
}

func TestProxyUpstreamFailureIsBadGateway(t *testing.T) {
	fw := &forwardStub{err: context.DeadlineExceeded}
	router := newRouter(&sessStub{}, fw)

	rec := get(t, router, "/api/stats")
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDiscoveryResponsesAreCached(t *testing.T) {
	fw := &forwardStub{status: http.StatusOK, body: []byte(`{"startups":12}`)}
	router := newRouter(&sessStub{}, fw)

	for i := 0; i < 3; i++ {
		rec := get(t, router, "/api/stats")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"startups":12}`, rec.Body.String())
	}
	require.Equal(t, 1, fw.callCount(), "repeat discovery reads come from cache")

	// Distinct query strings are distinct cache entries.
	get(t, router, "/api/stats?window=30d")
	require.Equal(t, 2, fw.callCount())
}

func TestNonDiscoveryRequestsAreNeverCached(t *testing.T) {
	fw := &forwardStub{status: http.StatusOK, body: []byte(`{"user":{"id":"u1"}}`)}
	router := newRouter(&sessStub{}, fw)

	get(t, router, "/api/users/profile")
	get(t, router, "/api/users/profile")
	require.Equal(t, 2, fw.callCount())
}

func TestHealth(t *testing.T) {
	router := newRouter(&sessStub{}, &forwardStub{})

	rec := get(t, router, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}
