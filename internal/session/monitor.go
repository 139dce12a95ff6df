package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nutricontrol/nutricontrol/internal/apierror"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/notify"
	"github.com/nutricontrol/nutricontrol/internal/telemetry"
)

// DefaultCheckInterval is how often the monitor inspects the token.
const DefaultCheckInterval = 5 * time.Minute

// locator is implemented by navigators that know the current destination.
type locator interface {
	Current() navigation.Destination
}

// Monitor periodically checks the session token and ends the session once
// it expires, even when no requests are being made.
type Monitor struct {
	state    *State
	nav      navigation.Navigator
	notifier notify.Notifier
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a monitor that checks every interval. The monitor starts
// a background goroutine that runs until Stop() is called or ctx is done.
func NewMonitor(
	ctx context.Context,
	state *State,
	nav navigation.Navigator,
	notifier notify.Notifier,
	interval time.Duration,
) *Monitor {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}

	monitorCtx, cancel := context.WithCancel(ctx)

	m := &Monitor{
		state:    state,
		nav:      nav,
		notifier: notifier,
		interval: interval,
		ctx:      monitorCtx,
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.checkLoop()

	return m
}

// Check runs a single expiry check. It reports whether it ended the session.
func (m *Monitor) Check() bool {
	telemetry.GetMetrics().ExpiryChecksTotal.Add(m.ctx, 1)

	if !m.state.Expired() {
		return false
	}

	if !m.state.Terminate(ReasonExpired) {
		// someone else got there first
		return false
	}

	var returnTo navigation.Destination
	if loc, ok := m.nav.(locator); ok {
		returnTo = loc.Current()
	}

	m.notifier.Warning(apierror.MsgSessionExpired)
	m.nav.Navigate(navigation.LoginDestination(returnTo))

	return true
}

// Stop gracefully stops the background goroutine.
func (m *Monitor) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Monitor) checkLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	log.Debug().Dur("interval", m.interval).Msg("Token expiry monitor started")

	for {
		select {
		case <-m.ctx.Done():
			log.Debug().Msg("Token expiry monitor stopped")
			return

		case <-ticker.C:
			if m.Check() {
				log.Info().Msg("Session expired while idle")
			}
		}
	}
}
