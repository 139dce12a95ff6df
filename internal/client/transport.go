package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gregjones/httpcache"
	"github.com/rs/zerolog/log"
)

var _ httpcache.Cache = (*SessionCache)(nil)

// SessionCache is an in-memory HTTP cache scoped to a single session. Reset
// drops every entry; it is called whenever the session ends so one user's
// responses are never served to the next.
type SessionCache struct {
	mu    sync.RWMutex
	cache *httpcache.MemoryCache
}

func NewSessionCache() *SessionCache {
	return &SessionCache{cache: httpcache.NewMemoryCache()}
}

func (c *SessionCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache.Get(key)
}

func (c *SessionCache) Set(key string, resp []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Set(key, resp)
}

func (c *SessionCache) Delete(key string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Delete(key)
}

// Reset drops every cached response.
func (c *SessionCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = httpcache.NewMemoryCache()
}

// NewCachingTransport wraps base with an HTTP cache backed by cache.
func NewCachingTransport(cache httpcache.Cache, base http.RoundTripper) http.RoundTripper {
	transport := httpcache.NewTransport(cache)
	transport.Transport = base
	transport.MarkCachedResponses = true
	return transport
}

// RetryTransport retries idempotent requests that fail before a response is
// received. Responses, whatever their status, are returned as is.
type RetryTransport struct {
	Base        http.RoundTripper
	MaxTries    uint
	MaxInterval time.Duration
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.MaxTries <= 1 || !idempotent(req.Method) {
		return t.Base.RoundTrip(req)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 100 * time.Millisecond
	if t.MaxInterval > 0 {
		eb.MaxInterval = t.MaxInterval
	}

	attempt := 0
	operation := func() (*http.Response, error) {
		attempt++
		resp, err := t.Base.RoundTrip(req)
		if err == nil {
			return resp, nil
		}
		if req.Context().Err() != nil {
			return nil, backoff.Permanent(err)
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("request failed, retrying")
		return nil, err
	}

	return backoff.Retry(req.Context(), operation,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(t.MaxTries),
	)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
