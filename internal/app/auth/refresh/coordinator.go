// Package refresh serializes access-token renewal: at most one network
// refresh is in flight no matter how many requests hit a 401 at once, and a
// misbehaving server cannot drag the client into a refresh storm.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	autherrors "github.com/foundrly/foundrly-client/internal/domain/auth/errors"
	"github.com/foundrly/foundrly-client/internal/domain/auth/store"
)

// Exchanger performs the actual network call; implemented by api.Client.
type Exchanger interface {
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

type Coordinator struct {
	exchanger Exchanger
	store     store.TokenStore
	log       *zap.Logger
	onInvalid func()

	// Concurrent callers join the in-flight refresh and all receive its
	// outcome, which is exactly the pending-request queue contract.
	group singleflight.Group

	mu          sync.Mutex
	attempts    int
	maxAttempts int
	cooldown    *rate.Limiter
}

// New builds a coordinator. cooldown <= 0 disables the time guard (tests);
// maxAttempts <= 0 falls back to 5.
func New(ex Exchanger, ts store.TokenStore, maxAttempts int, cooldown time.Duration, log *zap.Logger) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(cooldown), 1)
	}
	return &Coordinator{
		exchanger:   ex,
		store:       ts,
		log:         log,
		maxAttempts: maxAttempts,
		cooldown:    limiter,
	}
}

// OnSessionInvalid registers the hook fired when the coordinator itself
// declares the session unrecoverable (attempt ceiling, missing refresh
// token). Ordinary refresh failures leave that decision to the caller.
func (c *Coordinator) OnSessionInvalid(fn func()) { c.onInvalid = fn }

func (c *Coordinator) invalidate() {
	if c.onInvalid != nil {
		c.onInvalid()
	}
}

// Refresh returns a fresh access token. Callers arriving while a refresh is
// in flight suspend until it resolves and share its result; a failure
// rejects every waiter with the same error.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	v, err, shared := c.group.Do("refresh", func() (any, error) {
		return c.refreshOnce(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Debug("joined in-flight refresh")
	}
	return v.(string), nil
}

func (c *Coordinator) refreshOnce(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.attempts >= c.maxAttempts {
		c.mu.Unlock()
		c.log.Warn("refresh attempt ceiling reached, invalidating session",
			zap.Int("attempts", c.attempts))
		if err := c.store.ClearAll(ctx); err != nil {
			c.log.Error("clearing tokens failed", zap.Error(err))
		}
		c.invalidate()
		return "", fmt.Errorf("%w: %d attempts", autherrors.ErrRefreshExhausted, c.maxAttempts)
	}
	if !c.cooldown.Allow() {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: cooldown", autherrors.ErrRefreshExhausted)
	}
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()

	refreshToken := c.store.Refresh(ctx)
	if refreshToken == "" {
		c.log.Info("no refresh token available, invalidating session")
		if err := c.store.ClearAll(ctx); err != nil {
			c.log.Error("clearing tokens failed", zap.Error(err))
		}
		c.invalidate()
		return "", autherrors.ErrNoRefreshToken
	}

	c.log.Info("refreshing access token",
		zap.Int("attempt", attempt), zap.Int("max", c.maxAttempts))

	token, err := c.exchanger.RefreshToken(ctx, refreshToken)
	if err != nil {
		// Tokens stay in place; the HTTP client decides whether the
		// failure tears the session down.
		c.log.Warn("refresh call failed", zap.Int("attempt", attempt), zap.Error(err))
		return "", err
	}

	if err := c.store.SetAccess(ctx, token); err != nil {
		return "", autherrors.WrapInternal(err, "store refreshed token")
	}

	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()

	c.log.Info("access token refreshed")
	return token, nil
}
