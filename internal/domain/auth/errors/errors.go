package errors

import (
	"errors"
	"fmt"
)

// Sentinel classes for the client-side auth lifecycle. API and refresh layers
// wrap transport failures into these; session code branches with the Is*
// helpers and never leaks raw errors to its callers.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInternal         = errors.New("internal error")
	ErrNetwork          = errors.New("network error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrNoRefreshToken   = errors.New("no refresh token")
	ErrRefreshExhausted = errors.New("refresh exhausted")
)

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func WrapNetwork(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrNetwork, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsEmailNotVerified(err error) bool {
	return errors.Is(err, ErrEmailNotVerified)
}

func IsNoRefreshToken(err error) bool {
	return errors.Is(err, ErrNoRefreshToken)
}

func IsRefreshExhausted(err error) bool {
	return errors.Is(err, ErrRefreshExhausted)
}

// SessionFatal reports whether the failure must tear the session down
// (tokens cleared, state forced to unauthenticated).
func SessionFatal(err error) bool {
	return errors.Is(err, ErrRefreshExhausted) || errors.Is(err, ErrNoRefreshToken)
}
