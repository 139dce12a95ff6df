package credentials

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutricontrol/nutricontrol/internal/testutil"
)

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	got, err := ExpiresAt(testutil.Token(t, exp))
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))
}

func TestExpiresAt_Errors(t *testing.T) {
	_, err := ExpiresAt("")
	assert.ErrorIs(t, err, ErrTokenMissing)

	_, err = ExpiresAt("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = ExpiresAt(testutil.TokenWithoutExpiry(t))
	assert.ErrorIs(t, err, ErrTokenNoExpiry)
}

func TestIsExpired_FailClosed(t *testing.T) {
	now := time.Now()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	tests := []struct {
		name  string
		token string
	}{
		{name: "absent", token: ""},
		{name: "whitespace", token: "   "},
		{name: "single segment", token: "abc"},
		{name: "two segments", token: "abc.def"},
		{name: "garbage segments", token: "abc.def.ghi"},
		{name: "payload not json", token: header + "." + base64.RawURLEncoding.EncodeToString([]byte("hello")) + ".sig"},
		{name: "exp is a string", token: header + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":"tomorrow"}`)) + ".sig"},
		{name: "no exp", token: testutil.TokenWithoutExpiry(t)},
		{name: "exp in the past", token: testutil.Token(t, now.Add(-10*time.Second))},
		{name: "exp is now", token: testutil.Token(t, now.Truncate(time.Second))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsExpired(tt.token, now))
		})
	}
}

func TestIsExpired_Valid(t *testing.T) {
	token := testutil.Token(t, time.Now().Add(time.Hour))
	assert.False(t, IsExpired(token, time.Now()))
}

func TestIsExpired_NumericExpWithoutSignatureCheck(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	exp := time.Now().Add(time.Hour).Unix()
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"exp":%d}`, exp)))

	// signature is never checked
	assert.False(t, IsExpired(header+"."+payload+".c2ln", time.Now()))
}
