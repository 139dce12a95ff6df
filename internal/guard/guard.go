// Package guard keeps signed-out users out of protected destinations.
package guard

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/telemetry"
)

// Decision is the outcome of a guarded navigation.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Session is the read-only view of the session the guard needs.
type Session interface {
	IsAuthenticated() bool
	CurrentUser() *models.UserProfile
}

// Guard decides whether a destination may be entered. It holds no state of
// its own and performs no I/O.
type Guard struct {
	session Session
	nav     navigation.Navigator
}

// New creates a guard reading session and redirecting through nav.
func New(session Session, nav navigation.Navigator) *Guard {
	return &Guard{session: session, nav: nav}
}

// Check allows dest when a user is signed in. Otherwise it redirects to the
// login destination carrying dest as the return marker and denies.
func (g *Guard) Check(dest navigation.Destination) Decision {
	if g.session.IsAuthenticated() {
		return Allow
	}

	recordDenial(dest.Path())
	log.Debug().Str("destination", dest.String()).Msg("Not signed in, redirecting to login")

	g.nav.Navigate(navigation.LoginDestination(dest))
	return Deny
}

type contextKey string

const userContextKey contextKey = "user"

// Middleware protects HTTP routes. Unauthenticated requests are redirected to
// the login destination and next never runs. On success the signed-in
// profile is added to the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := g.session.CurrentUser()
		if !g.session.IsAuthenticated() || user == nil {
			dest := navigation.Destination(r.URL.RequestURI())

			recordDenial(r.URL.Path)
			log.Debug().Str("path", r.URL.Path).Msg("Not signed in, redirecting to login")

			http.Redirect(w, r, navigation.LoginDestination(dest).String(), http.StatusFound)
			return
		}

		log.Debug().Str("user", user.Email).Str("path", r.URL.Path).Msg("Session validated, allowing access")

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext extracts the profile added by Middleware.
func UserFromContext(ctx context.Context) (*models.UserProfile, bool) {
	user, ok := ctx.Value(userContextKey).(*models.UserProfile)
	return user, ok
}

func recordDenial(path string) {
	telemetry.GetMetrics().GuardDenialsTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("path", path)))
}
