package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nutricontrol/nutricontrol/internal/apierror"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/notify"
	"github.com/nutricontrol/nutricontrol/internal/session"
	"github.com/nutricontrol/nutricontrol/internal/telemetry"
)

// DefaultRedirectDelay keeps the "session expired" notice visible before
// navigating to the login destination.
const DefaultRedirectDelay = 1500 * time.Millisecond

// Terminator ends the current session.
type Terminator interface {
	Terminate(reason session.Reason) bool
}

// Interceptor reacts to failed backend calls. An unauthorized response ends
// the session and sends the user to the login destination; every other
// failure is only reported.
type Interceptor struct {
	session  Terminator
	nav      navigation.Navigator
	notifier notify.Notifier
	delay    time.Duration

	redirectPending atomic.Bool
	mu              sync.Mutex
	timer           *time.Timer
}

// NewInterceptor creates an interceptor. A negative delay uses
// DefaultRedirectDelay, zero redirects immediately.
func NewInterceptor(sess Terminator, nav navigation.Navigator, notifier notify.Notifier, delay time.Duration) *Interceptor {
	if delay < 0 {
		delay = DefaultRedirectDelay
	}
	return &Interceptor{
		session:  sess,
		nav:      nav,
		notifier: notifier,
		delay:    delay,
	}
}

// Install registers the interceptor hooks on client. It must be installed
// after any other after-response hook, as it stops the chain on failure.
func (i *Interceptor) Install(client *resty.Client) {
	client.OnAfterResponse(i.afterResponse)
	client.OnError(i.onError)
}

func (i *Interceptor) afterResponse(_ *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	apiErr := apierror.FromResponse(resp.StatusCode(), resp.Body())
	apiErr.Method = resp.Request.Method
	apiErr.URL = resp.Request.URL

	i.Handle(apiErr)

	return apiErr
}

func (i *Interceptor) onError(req *resty.Request, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		// already handled in afterResponse
		return
	}

	apiErr, ok := classify(err)
	if !ok {
		return
	}
	apiErr.Method = req.Method
	apiErr.URL = req.URL

	i.Handle(apiErr)
}

// Handle applies the failure policy to err. Unauthorized failures end the
// session, everything else is surfaced to the user and left alone.
func (i *Interceptor) Handle(err *apierror.Error) {
	telemetry.GetMetrics().RequestFailuresTotal.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", string(err.Kind))))

	if err.Kind != apierror.KindUnauthorized {
		log.Warn().
			Str("kind", string(err.Kind)).
			Int("status", err.Status).
			Str("method", err.Method).
			Str("url", err.URL).
			Msg(err.Message)
		i.notifier.Error(err.Message)
		return
	}

	telemetry.GetMetrics().UnauthorizedResponseTotal.Add(context.Background(), 1)
	log.Warn().Str("method", err.Method).Str("url", err.URL).Msg("Request unauthorized, ending session")

	// several requests can fail together, only the first one notifies
	first := i.redirectPending.CompareAndSwap(false, true)
	if first {
		i.notifier.Warning(err.Message)
	}

	i.session.Terminate(session.ReasonUnauthorized)

	if first {
		i.scheduleRedirect()
	}
}

func (i *Interceptor) scheduleRedirect() {
	var returnTo navigation.Destination
	if loc, ok := i.nav.(interface{ Current() navigation.Destination }); ok {
		returnTo = loc.Current()
	}
	dest := navigation.LoginDestination(returnTo)

	redirect := func() {
		i.redirectPending.Store(false)
		i.nav.Navigate(dest)
	}

	if i.delay == 0 {
		redirect()
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.timer = time.AfterFunc(i.delay, redirect)
}

// Stop cancels a pending redirect.
func (i *Interceptor) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.timer != nil && i.timer.Stop() {
		i.redirectPending.Store(false)
	}
	i.timer = nil
}

// classify maps an error raised before any response was received. Requests
// refused locally because the session is gone count as unauthorized. A call
// cancelled by its caller is not a failure worth reporting.
func classify(err error) (*apierror.Error, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return nil, false
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrSessionExpired):
		return apierror.Unauthorized(err), true
	default:
		return apierror.Network(err), true
	}
}

// normalize turns any error returned by resty into the error handed back to
// callers, an *apierror.Error unless the caller cancelled.
func normalize(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if classified, ok := classify(err); ok {
		return classified
	}
	return err
}
