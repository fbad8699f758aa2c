package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Tiered prefers the persistent KV tier and falls back to the cookie tier,
// covering the case where the server only handed the credential out as a
// cookie. Writes always land in the KV tier.
type Tiered struct {
	kv      KV
	cookies CookieTier
	log     *zap.Logger
}

func NewTiered(kv KV, cookies CookieTier, log *zap.Logger) *Tiered {
	return &Tiered{kv: kv, cookies: cookies, log: log}
}

func (t *Tiered) Access(ctx context.Context) string {
	return t.read(ctx, KeyAccessToken, CookieAccess)
}

func (t *Tiered) Refresh(ctx context.Context) string {
	return t.read(ctx, KeyRefreshToken, CookieRefresh)
}

func (t *Tiered) read(ctx context.Context, key, cookie string) string {
	v, err := t.kv.Get(ctx, key)
	if err != nil {
		t.log.Warn("token store read failed, falling back to cookie",
			zap.String("key", key), zap.Error(err))
	}
	if v != "" {
		return v
	}
	return t.cookies.Get(cookie)
}

func (t *Tiered) SetAccess(ctx context.Context, token string) error {
	return t.kv.Set(ctx, KeyAccessToken, token)
}

func (t *Tiered) SetRefresh(ctx context.Context, token string) error {
	return t.kv.Set(ctx, KeyRefreshToken, token)
}

func (t *Tiered) Marker(ctx context.Context, key string) string {
	v, _ := t.kv.Get(ctx, key)
	return v
}

func (t *Tiered) SetMarker(ctx context.Context, key, value string) error {
	return t.kv.Set(ctx, key, value)
}

func (t *Tiered) ClearMarker(ctx context.Context, key string) error {
	return t.kv.Delete(ctx, key)
}

// ClearAll wipes both tiers, markers included. Partial failures are collected
// so a broken backend cannot leave a half-cleared session unnoticed.
func (t *Tiered) ClearAll(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{
		KeyAccessToken, KeyRefreshToken, KeyVerificationToken, KeyPendingLoginEmail,
	} {
		if err := t.kv.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("clear %s: %w", key, err)
		}
	}
	t.cookies.Clear(CookieAccess, CookieRefresh)
	return firstErr
}
