// Package session owns the in-memory view of the signed-in user and keeps it
// in step with the credential store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"

	"github.com/nutricontrol/nutricontrol/internal/credentials"
	"github.com/nutricontrol/nutricontrol/internal/models"
	"github.com/nutricontrol/nutricontrol/internal/telemetry"
)

var (
	// ErrNoSession is returned by Token when nobody is signed in.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired is returned when the session token is past its exp
	// claim or cannot be decoded.
	ErrSessionExpired = errors.New("session expired")

	// ErrStaleLogin is returned by Establish when the session was terminated
	// after the ticket was issued.
	ErrStaleLogin = errors.New("login superseded by logout")
)

// Reason records why a session ended.
type Reason string

const (
	ReasonLogout       Reason = "logout"
	ReasonExpired      Reason = "expired"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonReplaced     Reason = "replaced"
)

// Event is delivered to subscribers after every state transition.
type Event struct {
	Authenticated bool
	User          *models.UserProfile
	Reason        Reason
}

// Ticket binds a login attempt to the session generation it started in.
type Ticket struct {
	epoch uint64
}

// State is the single source of truth for who is signed in. The zero value is
// not usable, create one with New.
//
// Invariant: authenticated is false if and only if user is nil.
type State struct {
	store *credentials.Store
	now   func() time.Time

	mu            sync.RWMutex
	authenticated bool
	user          *models.UserProfile
	token         string
	epoch         uint64
	listeners     []func(Event)
}

var _ oauth2.TokenSource = (*State)(nil)

// Option configures a State.
type Option func(*State)

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates the session state and initializes it from the store.
func New(store *credentials.Store, opts ...Option) *State {
	s := &State{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Initialize()

	return s
}

// Initialize reloads the session from the credential store. A session is
// restored only when the token is present, unexpired and has a profile.
// Anything else is purged.
func (s *State) Initialize() {
	creds, ok := s.store.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.authenticated = false
	s.user = nil
	s.token = ""

	if !ok {
		log.Debug().Msg("no stored session")
		return
	}

	switch {
	case credentials.IsExpired(creds.Token, s.now()):
		log.Info().Str("fingerprint", credentials.Fingerprint(creds.Token)).Msg("stored session expired, discarding")
	case creds.Profile == nil:
		log.Info().Str("fingerprint", credentials.Fingerprint(creds.Token)).Msg("stored session has no profile, discarding")
	default:
		s.authenticated = true
		s.user = creds.Profile
		s.token = creds.Token

		log.Info().Str("email", creds.Profile.Email).Msg("session restored")
		return
	}

	if err := s.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to purge stale credentials")
	}
}

// Begin issues a ticket for a login attempt. Take it before sending the login
// request and hand it to Establish with the response.
func (s *State) Begin() Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Ticket{epoch: s.epoch}
}

// Establish persists a successful login and marks the session authenticated.
// It is the only transition from logged out to logged in. When another user is
// still signed in, subscribers first see that session end with ReasonReplaced. If Terminate ran
// since the ticket was issued the result is discarded with ErrStaleLogin.
func (s *State) Establish(ticket Ticket, resp models.LoginResponse) error {
	profile := resp.Profile()

	s.mu.Lock()

	if ticket.epoch != s.epoch {
		s.mu.Unlock()
		telemetry.GetMetrics().StaleLoginsTotal.Add(context.Background(), 1)
		log.Warn().Str("email", profile.Email).Msg("discarding login that finished after logout")
		return ErrStaleLogin
	}

	if credentials.IsExpired(resp.Token, s.now()) {
		s.mu.Unlock()
		return fmt.Errorf("login response token unusable: %w", ErrSessionExpired)
	}

	if err := s.store.Save(resp.Token, profile); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist session: %w", err)
	}

	var replaced string
	if s.authenticated {
		replaced = s.user.Email
	}

	s.authenticated = true
	s.user = &profile
	s.token = resp.Token
	event := Event{Authenticated: true, User: copyProfile(s.user)}
	listeners := s.snapshotListeners()

	s.mu.Unlock()

	// signing in over another session ends that session first
	if replaced != "" {
		telemetry.GetMetrics().SessionsTerminatedTotal.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", string(ReasonReplaced))))
		log.Info().Str("email", replaced).Str("reason", string(ReasonReplaced)).Msg("session terminated")
		notifyListeners(listeners, Event{Authenticated: false, Reason: ReasonReplaced})
	}

	telemetry.GetMetrics().SessionsEstablishedTotal.Add(context.Background(), 1)
	log.Info().
		Str("email", profile.Email).
		Str("role", profile.Role).
		Str("fingerprint", credentials.Fingerprint(resp.Token)).
		Msg("session established")

	notifyListeners(listeners, event)

	return nil
}

// Terminate clears the store and marks the session logged out. It is safe to
// call repeatedly and from several goroutines; it reports whether this call
// performed the logged in to logged out transition. Every call invalidates
// outstanding login tickets.
func (s *State) Terminate(reason Reason) bool {
	s.mu.Lock()

	s.epoch++
	if err := s.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear credentials")
	}

	if !s.authenticated {
		s.mu.Unlock()
		return false
	}

	email := s.user.Email
	s.authenticated = false
	s.user = nil
	s.token = ""
	listeners := s.snapshotListeners()

	s.mu.Unlock()

	telemetry.GetMetrics().SessionsTerminatedTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("reason", string(reason))))
	log.Info().Str("email", email).Str("reason", string(reason)).Msg("session terminated")

	notifyListeners(listeners, Event{Authenticated: false, Reason: reason})

	return true
}

// IsAuthenticated reports whether a user is signed in.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// CurrentUser returns a copy of the signed-in profile, nil when logged out.
func (s *State) CurrentUser() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyProfile(s.user)
}

// Expired reports whether the current session token is past its expiry. A
// logged out session is never reported as expired.
func (s *State) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && credentials.IsExpired(s.token, s.now())
}

// Token returns the bearer token for outgoing requests.
func (s *State) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.authenticated {
		return nil, ErrNoSession
	}

	exp, err := credentials.ExpiresAt(s.token)
	if err != nil || !s.now().Before(exp) {
		return nil, ErrSessionExpired
	}

	return &oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
		Expiry:      exp,
	}, nil
}

// Subscribe registers fn to receive every transition. fn runs on the goroutine
// that caused the transition, after the state lock is released.
func (s *State) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *State) snapshotListeners() []func(Event) {
	return append([]func(Event){}, s.listeners...)
}

func notifyListeners(listeners []func(Event), event Event) {
	for _, fn := range listeners {
		fn(event)
	}
}

func copyProfile(p *models.UserProfile) *models.UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
