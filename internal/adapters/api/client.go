// Package api is the request pipeline to the remote platform API: bearer
// attachment for protected paths, refresh-and-replay on expired credentials,
// and typed endpoint wrappers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	autherrors "github.com/foundrly/foundrly-client/internal/domain/auth/errors"
	"github.com/foundrly/foundrly-client/internal/domain/auth/store"
)

// publicEndpoints never receive an Authorization header and never trigger
// refresh-and-replay. Substring matching, as the web client did.
var publicEndpoints = []string{
	"/signup",
	"/auth/login",
	"/auth/refresh",
	"/auth/forget-password",
	"/auth/send-verification-code",
	"/auth/verify",
	"/api/marketplace",
	"/api/collaborations",
	"/api/stats",
	"/api/search",
}

func isPublic(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	for _, p := range publicEndpoints {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// APIError is a non-2xx response. The server reports the reason in one of
// error/message/detail depending on the handler.
type APIError struct {
	Status  int
	Err     string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d: %s", e.Status, e.Reason())
}

func (e *APIError) Reason() string {
	for _, s := range []string{e.Err, e.Message, e.Detail} {
		if s != "" {
			return s
		}
	}
	return http.StatusText(e.Status)
}

// Unwrap classifies the status into the domain error taxonomy so callers can
// branch with errors.Is across layers.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return autherrors.ErrUnauthorized
	case http.StatusForbidden:
		if strings.Contains(strings.ToLower(e.Reason()), "not verified") {
			return autherrors.ErrEmailNotVerified
		}
		return autherrors.ErrForbidden
	}
	return nil
}

// Refresher obtains a fresh access token; implemented by the refresh
// coordinator. Wired after construction to break the client↔coordinator
// dependency cycle.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type Client struct {
	base      *url.URL
	http      *http.Client
	store     store.TokenStore
	refresher Refresher
	onInvalid func()
	log       *zap.Logger
}

// New builds the client. jar may be nil; passing one lets the cookie token
// tier share it.
func New(baseURL string, timeout time.Duration, ts store.TokenStore, jar http.CookieJar, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, autherrors.NewInvalidArgument("base URL: " + err.Error())
	}
	if jar == nil {
		if jar, err = cookiejar.New(nil); err != nil {
			return nil, autherrors.WrapInternal(err, "cookie jar")
		}
	}
	return &Client{
		base:  base,
		http:  &http.Client{Timeout: timeout, Jar: jar},
		store: ts,
		log:   log,
	}, nil
}

// Jar exposes the cookie jar so the cookie token tier can share it.
func (c *Client) Jar() http.CookieJar { return c.http.Jar }

func (c *Client) BaseURL() *url.URL { return c.base }

func (c *Client) SetRefresher(r Refresher) { c.refresher = r }

// OnSessionInvalid registers the hook fired when a protected request could
// not be recovered by refresh. Tokens are already cleared when it runs.
func (c *Client) OnSessionInvalid(fn func()) { c.onInvalid = fn }

func (c *Client) invalidate() {
	if c.onInvalid != nil {
		c.onInvalid()
	}
}

// Do performs a JSON request. body and out may be nil. Non-2xx responses
// come back as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return autherrors.WrapInternal(err, "encode request")
		}
	}

	_, data, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return autherrors.WrapInternal(err, "decode response")
		}
	}
	return nil
}

// Forward is the raw passthrough used by the gateway proxy: same pipeline,
// untyped body.
func (c *Client) Forward(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	status, data, err := c.send(ctx, method, path, body)
	if err != nil {
		// The proxy surfaces API failures as their original status.
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr.Status, data, nil
		}
		return 0, nil, err
	}
	return status, data, nil
}

// send runs the interceptor pipeline: attach credential, fire the request,
// and on a 401 for a protected path refresh once and replay once.
func (c *Client) send(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	public := isPublic(path)

	bearer := ""
	if !public {
		// Absence is fine; the server will answer 401/403 and the caller
		// (or the replay below) deals with it.
		bearer = c.store.Access(ctx)
	}

	status, data, err := c.attempt(ctx, method, path, body, bearer, public)
	if err != nil {
		return 0, nil, err
	}

	if status != http.StatusUnauthorized || public {
		return c.finish(method, path, status, data)
	}

	// Credential expired: single-flight refresh, then exactly one replay.
	if c.refresher == nil {
		return c.finish(method, path, status, data)
	}
	newTok, rerr := c.refresher.Refresh(ctx)
	if rerr != nil {
		c.log.Warn("token refresh failed, invalidating session",
			zap.String("path", path), zap.Error(rerr))
		if err := c.store.ClearAll(ctx); err != nil {
			c.log.Error("clearing tokens failed", zap.Error(err))
		}
		c.invalidate()
		return 0, nil, rerr
	}

	status, data, err = c.attempt(ctx, method, path, body, newTok, public)
	if err != nil {
		return 0, nil, err
	}
	return c.finish(method, path, status, data)
}

func (c *Client) finish(method, path string, status int, data []byte) (int, []byte, error) {
	if status < http.StatusBadRequest {
		return status, data, nil
	}
	apiErr := &APIError{Status: status}
	if len(data) > 0 {
		_ = json.Unmarshal(data, apiErr) // non-JSON error bodies keep the bare status
	}
	c.log.Debug("api error response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("reason", apiErr.Reason()))
	return status, data, apiErr
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, bearer string, public bool) (int, []byte, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return 0, nil, autherrors.NewInvalidArgument("request path: " + err.Error())
	}

	var rd io.Reader
	if len(body) > 0 {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), rd)
	if err != nil {
		return 0, nil, autherrors.WrapInternal(err, "build request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Bool("public", public),
		zap.Bool("has_auth", bearer != ""))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, autherrors.WrapNetwork(err, method+" "+path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, autherrors.WrapNetwork(err, "read response")
	}

	c.log.Debug("api response",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	return resp.StatusCode, data, nil
}
