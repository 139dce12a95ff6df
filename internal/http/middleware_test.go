package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginRequest(remoteAddr string, headers map[string]string) *http.Request {
	form := url.Values{"email": {"ana@clinic.com"}, "password": {"secret1"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.RemoteAddr = remoteAddr
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "browser on the same machine",
			remoteAddr: "127.0.0.1:51000",
			want:       "127.0.0.1",
		},
		{
			name:       "browser on the clinic network over ipv6",
			remoteAddr: "[fd00:10::25]:51000",
			want:       "fd00:10::25",
		},
		{
			name:       "reverse proxy forwards the nurse workstation",
			remoteAddr: "127.0.0.1:51000",
			headers:    map[string]string{"X-Forwarded-For": "10.0.4.21"},
			want:       "10.0.4.21",
		},
		{
			name:       "proxy chain keeps the originating client",
			remoteAddr: "127.0.0.1:51000",
			headers:    map[string]string{"X-Forwarded-For": " 10.0.4.21 ,172.16.0.2, 127.0.0.1"},
			want:       "10.0.4.21",
		},
		{
			name:       "nginx real ip",
			remoteAddr: "127.0.0.1:51000",
			headers:    map[string]string{"X-Real-IP": " 10.0.4.30 "},
			want:       "10.0.4.30",
		},
		{
			name:       "forwarded for wins over real ip",
			remoteAddr: "127.0.0.1:51000",
			headers:    map[string]string{"X-Forwarded-For": "10.0.4.21", "X-Real-IP": "10.0.4.30"},
			want:       "10.0.4.21",
		},
		{
			name:       "blank forwarded for falls through",
			remoteAddr: "127.0.0.1:51000",
			headers:    map[string]string{"X-Forwarded-For": " , 172.16.0.2"},
			want:       "127.0.0.1",
		},
		{
			name:       "unix socket listener without port",
			remoteAddr: "@",
			want:       "@",
		},
		{
			name: "no peer address",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractClientIP(loginRequest(tt.remoteAddr, tt.headers)))
		})
	}
}

func TestClientIPMiddleware_StoresForwardedClient(t *testing.T) {
	var got string
	handler := ClientIPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIPFromContext(r.Context())
		w.WriteHeader(http.StatusSeeOther)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("127.0.0.1:51000", map[string]string{"X-Forwarded-For": "10.0.4.21"}))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "10.0.4.21", got)

	assert.Empty(t, ClientIPFromContext(httptest.NewRequest(http.MethodGet, "/health", nil).Context()))
}

func TestRateLimiter_Allow(t *testing.T) {
	l := NewRateLimiter(3)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow("10.0.4.21"), "attempt %d", i)
	}
	require.False(t, l.Allow("10.0.4.21"))

	// other workstations have their own budget
	require.True(t, l.Allow("10.0.4.30"))
}

func TestRateLimiter_LoginAttemptsBehindProxy(t *testing.T) {
	l := NewRateLimiter(1)
	handler := ClientIPMiddleware()(l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	})))

	send := func(forwardedFor string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, loginRequest("127.0.0.1:51000", map[string]string{"X-Forwarded-For": forwardedFor}))
		return w
	}

	require.Equal(t, http.StatusSeeOther, send("10.0.4.21").Code)

	w := send("10.0.4.21")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "61", w.Header().Get("Retry-After"))

	// a second workstation behind the same proxy is not locked out
	assert.Equal(t, http.StatusSeeOther, send("10.0.4.30").Code)
}

func TestRateLimiter_MiddlewareWithoutClientIPContext(t *testing.T) {
	l := NewRateLimiter(1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))

	send := func() int {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, loginRequest("192.0.2.10:4000", nil))
		return w.Code
	}

	require.Equal(t, http.StatusSeeOther, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
