// Package dto mirrors the platform API's JSON contract. The server is a
// separate deployment; nothing here is authoritative beyond field names.
package dto

import "github.com/foundrly/foundrly-client/internal/domain/auth/model"

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Email       string `json:"email"    validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Role        string `json:"role"     validate:"required,oneof=entrepreneur student investor"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type VerifyRequest struct {
	Code  string `json:"code"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthResponse covers login and signup. Older server builds return the
// access token under "token", newer ones under "access_token".
type AuthResponse struct {
	User         *model.User `json:"user"`
	Token        string      `json:"token"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
}

// Access returns the access token whichever field carried it.
func (r *AuthResponse) Access() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type VerifyResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

type SendCodeResponse struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verificationToken"`
}

type ProfileResponse struct {
	User *model.User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
