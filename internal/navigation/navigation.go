// Package navigation models where the user is and where they are going next.
package navigation

import (
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Well known destinations.
const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	// ReturnParam carries the originally requested destination on the login
	// destination.
	ReturnParam = "returnUrl"
)

// Destination is a navigation target, a same-site path with optional query.
type Destination string

func (d Destination) String() string { return string(d) }

// Path returns the destination without its query.
func (d Destination) Path() string {
	path, _, _ := strings.Cut(string(d), "?")
	return path
}

// Navigator performs a transition to a destination.
type Navigator interface {
	Navigate(dest Destination)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(dest Destination)

func (f NavigatorFunc) Navigate(dest Destination) { f(dest) }

// LoginDestination returns the login destination carrying returnTo as the
// return-destination marker. An empty returnTo, or one that already points at
// the login destination, yields the bare login path.
func LoginDestination(returnTo Destination) Destination {
	if returnTo == "" || returnTo.Path() == LoginPath {
		return LoginPath
	}
	q := url.Values{}
	q.Set(ReturnParam, string(returnTo))
	return Destination(LoginPath + "?" + q.Encode())
}

// ReturnTo extracts the return-destination marker from a login destination.
// The result is sanitized.
func ReturnTo(dest Destination) Destination {
	u, err := url.Parse(string(dest))
	if err != nil {
		return DashboardPath
	}
	return SanitizeReturnTo(u.Query().Get(ReturnParam))
}

// SanitizeReturnTo only honours same-site relative paths. Anything else, and
// the login destination itself, collapses to the dashboard.
func SanitizeReturnTo(raw string) Destination {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return DashboardPath
	}

	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return DashboardPath
	}

	if u.Path == LoginPath {
		return DashboardPath
	}

	return Destination(raw)
}

// Router is an in-process Navigator that records the current destination.
type Router struct {
	mu        sync.RWMutex
	current   Destination
	history   []Destination
	listeners []func(Destination)
}

var _ Navigator = (*Router)(nil)

// NewRouter creates a router positioned at start.
func NewRouter(start Destination) *Router {
	return &Router{current: start}
}

func (r *Router) Navigate(dest Destination) {
	r.mu.Lock()
	if r.current != "" {
		r.history = append(r.history, r.current)
	}
	r.current = dest
	listeners := append([]func(Destination){}, r.listeners...)
	r.mu.Unlock()

	log.Debug().Str("destination", dest.String()).Msg("navigating")

	for _, fn := range listeners {
		fn(dest)
	}
}

// Current returns the destination of the last transition.
func (r *Router) Current() Destination {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// visited returns previously visited destinations, oldest first.
func (r *Router) visited() []Destination {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Destination(nil), r.history...)
}

// OnNavigate registers fn to be called after every transition.
func (r *Router) OnNavigate(fn func(Destination)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}
