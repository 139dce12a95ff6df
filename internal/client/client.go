package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/oauth2"

	"github.com/nutricontrol/nutricontrol/internal/logger"
	"github.com/nutricontrol/nutricontrol/internal/navigation"
	"github.com/nutricontrol/nutricontrol/internal/notify"
	"github.com/nutricontrol/nutricontrol/internal/session"
	"github.com/nutricontrol/nutricontrol/internal/telemetry"
)

// Config holds common client configuration
type Config struct {
	APIURL        string
	LoginURL      string
	Timeout       time.Duration
	RetryMaxTries uint
	RedirectDelay time.Duration
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		APIURL:        "http://localhost:8081",
		LoginURL:      "http://localhost:8081",
		Timeout:       30 * time.Second,
		RetryMaxTries: 3,
		RedirectDelay: DefaultRedirectDelay,
	}
}

// Session is what the API client needs from the session: the bearer token
// source, a way to end it, and notification when it ends.
type Session interface {
	oauth2.TokenSource
	Terminator
	Subscribe(fn func(session.Event))
}

// Option customises a Client.
type Option func(*options)

type options struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

// WithBaseTransport replaces the transport requests finally go through.
func WithBaseTransport(base http.RoundTripper) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Client talks to the backend API on behalf of the signed-in user.
//
// Requests flow through resty, the bearer token transport, tracing, retries
// and a per-session HTTP cache.
type Client struct {
	rest        *resty.Client
	cache       *SessionCache
	interceptor *Interceptor

	Patients      *PatientService
	Consultations *ConsultationService
	Dashboard     *DashboardService
	Reports       *ReportService
}

// New creates an API client bound to sess.
func New(cfg Config, sess Session, nav navigation.Navigator, notifier notify.Notifier, opts ...Option) *Client {
	o := options{
		base:   http.DefaultTransport,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache := NewSessionCache()

	var transport http.RoundTripper = NewCachingTransport(cache, o.base)
	transport = &RetryTransport{Base: transport, MaxTries: cfg.RetryMaxTries}
	transport = otelhttp.NewTransport(transport)
	transport = &oauth2.Transport{Source: sess, Base: transport}

	rest := resty.New().
		SetBaseURL(cfg.APIURL).
		SetTransport(transport).
		SetTimeout(cfg.Timeout).
		SetLogger(logger.NewResty(o.logger)).
		SetHeader("Accept", "application/json")

	logger.Requests(rest, o.logger, "api")
	rest.OnAfterResponse(recordDuration)

	interceptor := NewInterceptor(sess, nav, notifier, cfg.RedirectDelay)
	interceptor.Install(rest)

	sess.Subscribe(func(e session.Event) {
		cache.Reset()
		log.Debug().
			Bool("authenticated", e.Authenticated).
			Str("reason", string(e.Reason)).
			Msg("session changed, response cache purged")
	})

	c := &Client{
		rest:        rest,
		cache:       cache,
		interceptor: interceptor,
	}
	c.Patients = &PatientService{client: c}
	c.Consultations = &ConsultationService{client: c}
	c.Dashboard = &DashboardService{client: c}
	c.Reports = &ReportService{client: c}

	return c
}

// Close cancels any pending redirect.
func (c *Client) Close() {
	c.interceptor.Stop()
}

// Interceptor returns the failure policy installed on the client.
func (c *Client) Interceptor() *Interceptor {
	return c.interceptor
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

func (c *Client) execute(req *resty.Request, method, url string) (*resty.Response, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		return resp, normalize(err)
	}
	return resp, nil
}

func recordDuration(_ *resty.Client, resp *resty.Response) error {
	telemetry.GetMetrics().RequestDuration.Record(resp.Request.Context(),
		float64(resp.Time().Milliseconds()),
		metric.WithAttributes(
			attribute.String("method", resp.Request.Method),
			attribute.String("status", strconv.Itoa(resp.StatusCode())),
		))
	return nil
}
