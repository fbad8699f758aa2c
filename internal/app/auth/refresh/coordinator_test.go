package refresh_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foundrly/foundrly-client/internal/app/auth/refresh"
	autherrors "github.com/foundrly/foundrly-client/internal/domain/auth/errors"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type storeStub struct {
	mu      sync.Mutex
	access  string
	refresh string
	markers map[string]string
	cleared int
}

func newStoreStub() *storeStub {
	return &storeStub{markers: make(map[string]string)}
}

func (s *storeStub) Access(context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}
func (s *storeStub) Refresh(context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}
func (s *storeStub) SetAccess(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = tok
	return nil
}
func (s *storeStub) SetRefresh(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = tok
	return nil
}
func (s *storeStub) Marker(_ context.Context, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers[key]
}
func (s *storeStub) SetMarker(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[key] = value
	return nil
}
func (s *storeStub) ClearMarker(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, key)
	return nil
}
func (s *storeStub) ClearAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	s.markers = make(map[string]string)
	s.cleared++
	return nil
}

type exchangerStub struct {
	calls int64
	fn    func(refreshToken string) (string, error)
}

func (e *exchangerStub) RefreshToken(_ context.Context, rt string) (string, error) {
	atomic.AddInt64(&e.calls, 1)
	return e.fn(rt)
}

func (e *exchangerStub) callCount() int64 { return atomic.LoadInt64(&e.calls) }

/* ──────────────────────────────── tests ──────────────────────────────── */

func TestCoordinator_SingleFlight(t *testing.T) {
	ts := newStoreStub()
	ts.refresh = "RT1"

	release := make(chan struct{})
	ex := &exchangerStub{fn: func(string) (string, error) {
		<-release
		return "AT2", nil
	}}
	c := refresh.New(ex, ts, 5, 0, zap.NewNop())

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Refresh(context.Background())
		}(i)
	}

	// Give every caller time to reach the coordinator before resolving.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, ex.callCount(), "exactly one network refresh")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "AT2", results[i])
	}
	require.Equal(t, "AT2", ts.Access(context.Background()))
}

func TestCoordinator_FailureRejectsAllWaiters(t *testing.T) {
	ts := newStoreStub()
	ts.refresh = "RT1"

	release := make(chan struct{})
	boom := errors.New("server said no")
	ex := &exchangerStub{fn: func(string) (string, error) {
		<-release
		return "", boom
	}}
	c := refresh.New(ex, ts, 5, 0, zap.NewNop())

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Refresh(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, ex.callCount())
	for i := 0; i < n; i++ {
		require.ErrorIs(t, errs[i], boom, "every waiter gets the same error")
	}
	// Ordinary refresh failures leave the tokens alone.
	require.Equal(t, "RT1", ts.Refresh(context.Background()))
	require.Zero(t, ts.cleared)
}

func TestCoordinator_Cooldown(t *testing.T) {
	ts := newStoreStub()
	ts.refresh = "RT1"
	ex := &exchangerStub{fn: func(string) (string, error) { return "AT2", nil }}
	c := refresh.New(ex, ts, 5, 5*time.Second, zap.NewNop())

	invalidated := false
	c.OnSessionInvalid(func() { invalidated = true })

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	_, err = c.Refresh(context.Background())
	require.True(t, autherrors.IsRefreshExhausted(err))
	require.EqualValues(t, 1, ex.callCount(), "second call must not reach the network")

	// Cooldown is backpressure, not a session verdict: tokens stay put and
	// the invalidation hook stays quiet.
	require.Zero(t, ts.cleared)
	require.False(t, invalidated)
	require.Equal(t, "RT1", ts.Refresh(context.Background()))
}

func TestCoordinator_AttemptCeiling(t *testing.T) {
	ts := newStoreStub()
	ts.refresh = "RT1"
	ex := &exchangerStub{fn: func(string) (string, error) {
		return "", errors.New("refresh rejected")
	}}
	c := refresh.New(ex, ts, 5, 0, zap.NewNop())

	invalidated := false
	c.OnSessionInvalid(func() { invalidated = true })

	for i := 0; i < 5; i++ {
		_, err := c.Refresh(context.Background())
		require.Error(t, err)
		require.False(t, autherrors.IsRefreshExhausted(err))
	}
	require.EqualValues(t, 5, ex.callCount())

	// The sixth invocation fails fast and tears the session down.
	_, err := c.Refresh(context.Background())
	require.True(t, autherrors.IsRefreshExhausted(err))
	require.EqualValues(t, 5, ex.callCount(), "no sixth network call")
	require.True(t, invalidated)
	require.Equal(t, 1, ts.cleared)
}

func TestCoordinator_SuccessResetsAttempts(t *testing.T) {
	ts := newStoreStub()
	ts.refresh = "RT1"

	fail := true
	ex := &exchangerStub{fn: func(string) (string, error) {
		if fail {
			return "", errors.New("refresh rejected")
		}
		return "AT2", nil
	}}
	c := refresh.New(ex, ts, 5, 0, zap.NewNop())

	for i := 0; i < 4; i++ {
		_, err := c.Refresh(context.Background())
		require.Error(t, err)
	}

	fail = false
	tok, err := c.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AT2", tok)

	// The ledger reset: five more failures fit before the ceiling again.
	fail = true
	for i := 0; i < 5; i++ {
		_, err := c.Refresh(context.Background())
		require.Error(t, err)
		require.False(t, autherrors.IsRefreshExhausted(err))
	}
	_, err = c.Refresh(context.Background())
	require.True(t, autherrors.IsRefreshExhausted(err))
}

func TestCoordinator_NoRefreshToken(t *testing.T) {
	ts := newStoreStub()
	ex := &exchangerStub{fn: func(string) (string, error) { return "AT2", nil }}
	c := refresh.New(ex, ts, 5, 0, zap.NewNop())

	invalidated := false
	c.OnSessionInvalid(func() { invalidated = true })

	_, err := c.Refresh(context.Background())
	require.True(t, autherrors.IsNoRefreshToken(err))
	require.Zero(t, ex.callCount(), "no network call without a refresh token")
	require.True(t, invalidated)
	require.Equal(t, 1, ts.cleared)
}
