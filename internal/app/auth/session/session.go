// Package session owns the process-wide authenticated-session state. All
// mutation goes through the operations below; everyone else sees read-only
// snapshots. Operations report outcomes as result structs, never as errors.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/foundrly/foundrly-client/internal/adapters/api"
	"github.com/foundrly/foundrly-client/internal/adapters/api/dto"
	autherrors "github.com/foundrly/foundrly-client/internal/domain/auth/errors"
	"github.com/foundrly/foundrly-client/internal/domain/auth/model"
	"github.com/foundrly/foundrly-client/internal/domain/auth/store"
)

// API is the slice of the platform client the session needs.
type API interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error)
	VerifyEmail(ctx context.Context, req dto.VerifyRequest) (*dto.VerifyResponse, error)
	SendVerificationCode(ctx context.Context, email string) (*dto.SendCodeResponse, error)
	ForgotPassword(ctx context.Context, email string) (*dto.MessageResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*model.User, error)
}

type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

type Session struct {
	api       API
	refresher Refresher
	store     store.TokenStore
	validate  *validator.Validate
	log       *zap.Logger

	mu            sync.RWMutex
	user          *model.User
	authenticated bool
	loading       bool
}

func New(a API, r Refresher, ts store.TokenStore, v *validator.Validate, log *zap.Logger) *Session {
	return &Session{
		api:       a,
		refresher: r,
		store:     ts,
		validate:  v,
		log:       log,
		loading:   true,
	}
}

func (s *Session) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var u *model.User
	if s.user != nil {
		copied := *s.user
		u = &copied
	}
	return model.Snapshot{User: u, Authenticated: s.authenticated, Loading: s.loading}
}

func (s *Session) set(u *model.User, authenticated bool) {
	s.mu.Lock()
	s.user = u
	s.authenticated = authenticated
	s.mu.Unlock()
}

// Invalidate forces the unauthenticated state. Hook target for the HTTP
// client and refresh coordinator; idempotent, tokens are the caller's job.
func (s *Session) Invalidate() {
	s.set(nil, false)
}

type LoginResult struct {
	Success           bool
	User              *model.User
	Error             string
	NeedsVerification bool
}

type SignupResult struct {
	Success              bool
	User                 *model.User
	Error                string
	RequiresVerification bool
}

type VerifyResult struct {
	Success bool
	Message string
	Error   string
}

type OpResult struct {
	Success bool
	Message string
	Error   string
}

// CheckAuthStatus resolves the persisted credentials into a session state at
// process start. Fail-closed: any unexpected failure clears everything.
// Always leaves the loading flag false.
func (s *Session) CheckAuthStatus(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	access := s.store.Access(ctx)
	if access == "" {
		// No access token: one opportunistic refresh in case a
		// refresh-only cookie survived. Success is not asserted as
		// authenticated; the next protected call resolves it.
		if _, err := s.refresher.Refresh(ctx); err != nil {
			s.log.Debug("no session to recover", zap.Error(err))
		} else {
			s.log.Info("access token recovered from refresh credential")
		}
		s.set(nil, false)
		return
	}

	user, err := s.api.Profile(ctx)
	if err != nil && autherrors.IsUnauthorized(err) {
		if _, rerr := s.refresher.Refresh(ctx); rerr == nil {
			user, err = s.api.Profile(ctx)
		}
	}
	if err != nil || user == nil {
		s.log.Warn("auth check failed, clearing session", zap.Error(err))
		if cerr := s.store.ClearAll(ctx); cerr != nil {
			s.log.Error("clearing tokens failed", zap.Error(cerr))
		}
		s.set(nil, false)
		return
	}

	s.log.Info("session restored", zap.String("username", user.Username))
	s.set(user, true)
	_ = s.store.ClearMarker(ctx, store.KeyVerificationToken)
}

func (s *Session) Login(ctx context.Context, email, password string) LoginResult {
	req := dto.LoginRequest{Email: email, Password: password}
	if err := s.validate.Struct(req); err != nil {
		return LoginResult{Error: err.Error()}
	}

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		if autherrors.IsEmailNotVerified(err) {
			return LoginResult{Error: "Email not verified", NeedsVerification: true}
		}
		return LoginResult{Error: reason(err, "Login failed")}
	}
	if resp.User == nil {
		return LoginResult{Error: "No user data received"}
	}

	if access := resp.Access(); access != "" {
		if err := s.store.SetAccess(ctx, access); err != nil {
			s.log.Error("persisting access token failed", zap.Error(err))
		}
	} else {
		s.log.Warn("login response carried no access token")
	}
	if resp.RefreshToken != "" {
		if err := s.store.SetRefresh(ctx, resp.RefreshToken); err != nil {
			s.log.Error("persisting refresh token failed", zap.Error(err))
		}
	}

	s.set(resp.User, true)
	_ = s.store.ClearMarker(ctx, store.KeyVerificationToken)
	return LoginResult{Success: true, User: resp.User}
}

func (s *Session) Signup(ctx context.Context, username, email, password string, role model.Role, phone string) SignupResult {
	req := dto.SignupRequest{
		Username:    username,
		Email:       email,
		Password:    password,
		Role:        string(role),
		PhoneNumber: strings.TrimSpace(phone),
	}
	if err := s.validate.Struct(req); err != nil {
		return SignupResult{Error: err.Error()}
	}

	resp, err := s.api.Signup(ctx, req)
	if err != nil {
		return SignupResult{Error: reason(err, "Signup failed")}
	}
	if resp.User == nil {
		return SignupResult{Error: "No user data received"}
	}
	user := resp.User

	if user.EmailVerified && resp.Access() != "" {
		if err := s.store.SetAccess(ctx, resp.Access()); err != nil {
			s.log.Error("persisting access token failed", zap.Error(err))
		}
		s.set(user, true)
		_ = s.store.ClearMarker(ctx, store.KeyVerificationToken)
	} else {
		// Email needs verifying before the account can authenticate.
		s.set(user, false)
		_ = s.store.SetMarker(ctx, store.KeyPendingLoginEmail, user.Email)
	}

	return SignupResult{Success: true, User: user, RequiresVerification: !user.EmailVerified}
}

func (s *Session) VerifyEmail(ctx context.Context, code, email string) VerifyResult {
	if code == "" {
		return VerifyResult{Error: "Verification code is required"}
	}

	resp, err := s.api.VerifyEmail(ctx, dto.VerifyRequest{Code: code, Email: email})
	if err != nil {
		return VerifyResult{Error: reason(err, "Email verification failed")}
	}

	switch {
	case resp.User != nil:
		if resp.Token != "" {
			if err := s.store.SetAccess(ctx, resp.Token); err != nil {
				s.log.Error("persisting access token failed", zap.Error(err))
			}
			s.set(resp.User, true)
		} else {
			s.set(resp.User, false)
		}
	default:
		// No user in the response: trust the just-confirmed success and
		// flip the local record.
		s.mu.Lock()
		if s.user != nil {
			u := *s.user
			u.EmailVerified = true
			s.user = &u
			s.authenticated = true
		}
		s.mu.Unlock()
	}

	msg := resp.Message
	if msg == "" {
		msg = "Email verified successfully"
	}
	return VerifyResult{Success: true, Message: msg}
}

func (s *Session) ResendVerificationCode(ctx context.Context, email string) OpResult {
	resp, err := s.api.SendVerificationCode(ctx, email)
	if err != nil {
		return OpResult{Error: reason(err, "Failed to resend verification code")}
	}
	if resp.VerificationToken != "" {
		// Opaque correlation token; cached, never interpreted.
		_ = s.store.SetMarker(ctx, store.KeyVerificationToken, resp.VerificationToken)
	}
	msg := resp.Message
	if msg == "" {
		msg = "Verification code sent successfully"
	}
	return OpResult{Success: true, Message: msg}
}

func (s *Session) RequestPasswordReset(ctx context.Context, email string) OpResult {
	resp, err := s.api.ForgotPassword(ctx, email)
	if err != nil {
		return OpResult{Error: reason(err, "Failed to request password reset")}
	}
	msg := resp.Message
	if msg == "" {
		msg = "Password reset email sent"
	}
	return OpResult{Success: true, Message: msg}
}

// Logout is client-guaranteed: the server call is best-effort, local state
// and tokens are always cleared. Safe to call when already unauthenticated.
func (s *Session) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		s.log.Warn("server logout failed", zap.Error(err))
	}
	s.set(nil, false)
	if err := s.store.ClearAll(ctx); err != nil {
		s.log.Error("clearing tokens failed", zap.Error(err))
	}
}

// UpdateUser merges fields into the cached user. Local only; persisting goes
// through the profile-update endpoint.
func (s *Session) UpdateUser(patch model.UserPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	u := *s.user
	u.Apply(patch)
	s.user = &u
}

func reason(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason()
	}
	if autherrors.IsNetwork(err) {
		return "Network error"
	}
	return fallback
}
