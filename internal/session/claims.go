package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PeekExpiry extracts the exp claim from a bearer token without verifying the
// signature. The platform API signs its own tokens and we do not hold the key; the
// peek only lets hydration drop a token that is already past its expiry instead of
// caching a session that every upstream call will reject.
func PeekExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Opaque (non-JWT) tokens are fine; we just cannot see their expiry.
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token carries a readable exp claim in the past.
func Expired(token string, now time.Time) bool {
	exp, ok := PeekExpiry(token)
	return ok && now.After(exp)
}
