package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/nutricontrol/nutricontrol"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Session metrics
	SessionsEstablishedTotal metric.Int64Counter
	SessionsTerminatedTotal  metric.Int64Counter
	StaleLoginsTotal         metric.Int64Counter
	ExpiryChecksTotal        metric.Int64Counter

	// Request metrics
	RequestDuration           metric.Float64Histogram
	RequestFailuresTotal      metric.Int64Counter
	UnauthorizedResponseTotal metric.Int64Counter

	// Navigation metrics
	GuardDenialsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.SessionsEstablishedTotal, _ = meter.Int64Counter(
		"nutricontrol.sessions.established.total",
		metric.WithDescription("Total number of sessions established by login"),
		metric.WithUnit("{session}"),
	)

	m.SessionsTerminatedTotal, _ = meter.Int64Counter(
		"nutricontrol.sessions.terminated.total",
		metric.WithDescription("Total number of sessions terminated, by reason"),
		metric.WithUnit("{session}"),
	)

	m.StaleLoginsTotal, _ = meter.Int64Counter(
		"nutricontrol.sessions.stale_logins.total",
		metric.WithDescription("Login results discarded because a logout happened while in flight"),
		metric.WithUnit("{login}"),
	)

	m.ExpiryChecksTotal, _ = meter.Int64Counter(
		"nutricontrol.sessions.expiry_checks.total",
		metric.WithDescription("Total number of token expiry checks"),
		metric.WithUnit("{check}"),
	)

	m.RequestDuration, _ = meter.Float64Histogram(
		"nutricontrol.api.request.duration",
		metric.WithDescription("Duration of backend API requests"),
		metric.WithUnit("ms"),
	)

	m.RequestFailuresTotal, _ = meter.Int64Counter(
		"nutricontrol.api.request.failures.total",
		metric.WithDescription("Total number of failed backend API requests, by kind"),
		metric.WithUnit("{request}"),
	)

	m.UnauthorizedResponseTotal, _ = meter.Int64Counter(
		"nutricontrol.api.unauthorized.total",
		metric.WithDescription("Total number of requests rejected as unauthorized"),
		metric.WithUnit("{request}"),
	)

	m.GuardDenialsTotal, _ = meter.Int64Counter(
		"nutricontrol.guard.denials.total",
		metric.WithDescription("Total number of protected navigations denied"),
		metric.WithUnit("{navigation}"),
	)

	return m
}
