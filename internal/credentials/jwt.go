package credentials

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMissing is returned when there is no token to inspect.
	ErrTokenMissing = errors.New("token missing")

	// ErrTokenMalformed is returned when the token payload cannot be decoded.
	ErrTokenMalformed = errors.New("token malformed")

	// ErrTokenNoExpiry is returned when the payload has no usable exp claim.
	ErrTokenNoExpiry = errors.New("token has no expiry")
)

// ExpiresAt reads the exp claim of a JWT-shaped token.
//
// The signature is NOT verified. The backend is the authority on token
// validity; the client only peeks at exp to notice an expired session early.
func ExpiresAt(token string) (time.Time, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, ErrTokenMissing
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrTokenNoExpiry, err)
	}
	if exp == nil {
		return time.Time{}, ErrTokenNoExpiry
	}

	return exp.Time, nil
}

// IsExpired reports whether token should be treated as expired at now.
// Anything that is not a decodable token with a future exp is expired.
func IsExpired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
