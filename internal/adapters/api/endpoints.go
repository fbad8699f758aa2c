package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/foundrly/foundrly-client/internal/adapters/api/dto"
	autherrors "github.com/foundrly/foundrly-client/internal/domain/auth/errors"
	"github.com/foundrly/foundrly-client/internal/domain/auth/model"
)

func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshToken exchanges the refresh token for a new access token. The path
// is public, so this never recurses into the refresh-and-replay logic.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	var out dto.RefreshResponse
	err := c.Do(ctx, http.MethodPost, "/auth/refresh", dto.RefreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh response carried no access token", autherrors.ErrInternal)
	}
	return out.AccessToken, nil
}

func (c *Client) VerifyEmail(ctx context.Context, req dto.VerifyRequest) (*dto.VerifyResponse, error) {
	var out dto.VerifyResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/verify", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendVerificationCode(ctx context.Context, email string) (*dto.SendCodeResponse, error) {
	var out dto.SendCodeResponse
	err := c.Do(ctx, http.MethodPost, "/auth/send-verification-code", dto.SendCodeRequest{Email: email}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*dto.MessageResponse, error) {
	var out dto.MessageResponse
	err := c.Do(ctx, http.MethodPost, "/auth/forget-password", dto.ForgotPasswordRequest{Email: email}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout is best-effort on the server side; callers treat failures as
// non-fatal.
func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var out dto.ProfileResponse
	if err := c.Do(ctx, http.MethodGet, "/api/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*model.User, error) {
	var out dto.ProfileResponse
	if err := c.Do(ctx, http.MethodPut, "/api/users/profile", fields, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

/* public discovery */

func (c *Client) Marketplace(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return c.rawGet(ctx, "/api/marketplace", query)
}

func (c *Client) Collaborations(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return c.rawGet(ctx, "/api/collaborations", query)
}

func (c *Client) Stats(ctx context.Context) (json.RawMessage, error) {
	return c.rawGet(ctx, "/api/stats", nil)
}

func (c *Client) Search(ctx context.Context, q string) (json.RawMessage, error) {
	return c.rawGet(ctx, "/api/search", url.Values{"q": []string{q}})
}

/* role-gated operations; entities stay opaque JSON */

func (c *Client) CreateStartup(ctx context.Context, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.Do(ctx, http.MethodPost, "/api/startups", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStartup(ctx context.Context, startupID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/startups/" + url.PathEscape(startupID)
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPositions(ctx context.Context, startupID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/startups/" + url.PathEscape(startupID) + "/positions"
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePosition(ctx context.Context, startupID string, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/startups/" + url.PathEscape(startupID) + "/positions"
	if err := c.Do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApplyToCollaboration(ctx context.Context, collaborationID string, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/collaborations/" + url.PathEscape(collaborationID) + "/apply"
	if err := c.Do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApproveApplication(ctx context.Context, applicationID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/applications/" + url.PathEscape(applicationID) + "/approve"
	if err := c.Do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeclineApplication(ctx context.Context, applicationID string) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/applications/" + url.PathEscape(applicationID) + "/decline"
	if err := c.Do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExpressInterest(ctx context.Context, startupID string, payload any) (json.RawMessage, error) {
	var out json.RawMessage
	path := "/api/startups/" + url.PathEscape(startupID) + "/interest"
	if err := c.Do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) rawGet(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var out json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
