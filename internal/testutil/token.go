// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const signingKey = "test-signing-key-not-used-for-verification"

// Token returns an HS256 JWT whose exp claim is exp.
func Token(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "a@b.com",
		"exp":   exp.Unix(),
		"roles": []string{"nutri"},
	})

	signed, err := token.SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}

// TokenWithoutExpiry returns an HS256 JWT that has no exp claim.
func TokenWithoutExpiry(t *testing.T) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@b.com"})
	signed, err := token.SignedString([]byte(signingKey))
	require.NoError(t, err)
	return signed
}
