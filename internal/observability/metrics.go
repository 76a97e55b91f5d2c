// internal/observability/metrics.go

// Package observability holds the Prometheus metrics the service exports on
// /metrics. All methods are safe on a nil *Metrics so services can run
// without instrumentation in tests.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "learning"

type Metrics struct {
	// HTTPRequestDuration labels: route, method, status.
	HTTPRequestDuration *prometheus.HistogramVec

	// LiveTransitions labels: from, to, source (admin, sync).
	LiveTransitions *prometheus.CounterVec

	// ProviderErrors labels: operation. Counts provider calls that failed,
	// whether or not the caller recovered.
	ProviderErrors *prometheus.CounterVec

	// WebhookDeliveries labels: outcome (applied, unknown_video, invalid_signature, malformed, store_error).
	WebhookDeliveries *prometheus.CounterVec

	DPPAttempts   prometheus.Counter
	DPPPercentage prometheus.Histogram

	// CacheLookups labels: kind, result (hit, miss).
	CacheLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		LiveTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "live",
			Name:      "transitions_total",
			Help:      "Live stream status transitions.",
		}, []string{"from", "to", "source"}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Failed calls to the video provider.",
		}, []string{"operation"}),
		WebhookDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Inbound provider webhook deliveries by outcome.",
		}, []string{"outcome"}),
		DPPAttempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dpp",
			Name:      "attempts_total",
			Help:      "Graded DPP attempts.",
		}),
		DPPPercentage: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dpp",
			Name:      "attempt_percentage",
			Help:      "Distribution of DPP attempt percentages.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Read-through cache lookups.",
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) ObserveHTTP(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}

func (m *Metrics) LiveTransition(from, to, source string) {
	if m == nil {
		return
	}
	m.LiveTransitions.WithLabelValues(from, to, source).Inc()
}

func (m *Metrics) ProviderError(operation string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) WebhookDelivery(outcome string) {
	if m == nil {
		return
	}
	m.WebhookDeliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DPPAttempt(percentage float64) {
	if m == nil {
		return
	}
	m.DPPAttempts.Inc()
	m.DPPPercentage.Observe(percentage)
}

func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}
