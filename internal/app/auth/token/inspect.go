// Package token peeks inside JWT access tokens without verifying them. The
// client holds no server keys; nothing read here is trusted for
// authorization, it only feeds logs and the whoami display.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser()

// Claims returns the unverified claim set.
func Claims(tok string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ExpiresAt reports the exp claim, if the token parses and carries one.
func ExpiresAt(tok string) (time.Time, bool) {
	claims, err := Claims(tok)
	if err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TTL is the remaining lifetime; zero when unknown or already expired.
func TTL(tok string) time.Duration {
	exp, ok := ExpiresAt(tok)
	if !ok {
		return 0
	}
	if d := time.Until(exp); d > 0 {
		return d
	}
	return 0
}
