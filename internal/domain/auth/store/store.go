package store

import "context"

// Keys in the persistent tier. Same names the web client used in
// localStorage, so a shared redis tier can serve both.
const (
	KeyAccessToken       = "access_token"
	KeyRefreshToken      = "refresh_token"
	KeyVerificationToken = "verificationToken"
	KeyPendingLoginEmail = "pendingLoginEmail"
)

// Cookie names the server sets alongside the JSON token fields.
const (
	CookieAccess  = "token"
	CookieRefresh = "refresh_token"
)

// KV is a persistent string store (file, redis, memory). Absent keys return
// "" with a nil error; absence is a normal state.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// CookieTier reads the token mirror cookies out of the HTTP client's jar and
// can expire them. The jar itself is written by server Set-Cookie headers,
// never by this package.
type CookieTier interface {
	Get(name string) string
	Clear(names ...string)
}

// TokenStore is the single persistence surface the rest of the client sees.
type TokenStore interface {
	Access(ctx context.Context) string
	Refresh(ctx context.Context) string
	SetAccess(ctx context.Context, token string) error
	SetRefresh(ctx context.Context, token string) error

	Marker(ctx context.Context, key string) string
	SetMarker(ctx context.Context, key, value string) error
	ClearMarker(ctx context.Context, key string) error

	ClearAll(ctx context.Context) error
}
