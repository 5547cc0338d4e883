package dynamix

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes Prometheus metrics for the dispatch lifecycle.
// Safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec

	rateLimiterTokens   *prometheus.GaugeVec
	circuitBreakerState *prometheus.GaugeVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynamix_requests_total",
				Help: "Total number of dispatched requests",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dynamix_request_duration_seconds",
				Help:    "Duration of dispatched requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dynamix_requests_in_flight",
				Help: "Number of dispatches currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynamix_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dynamix_errors_total",
				Help: "Total number of dispatch errors by kind",
			},
			[]string{"type", "method", "endpoint"},
		),
		rateLimiterTokens: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dynamix_rate_limiter_tokens",
				Help: "Currently available rate limiter tokens",
			},
			[]string{"name"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dynamix_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
	}
}

// RecordRequestStart marks a dispatch as in flight.
func (m *MetricsCollector) RecordRequestStart(method, endpoint string) {
	m.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd marks a dispatch as finished.
func (m *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	m.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRequest records one completed attempt with its status and duration.
func (m *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.requestDuration.WithLabelValues(method, status, endpoint).Observe(duration.Seconds())
}

// RecordRetry records a retry attempt.
func (m *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	m.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordError records a dispatch error by kind.
func (m *MetricsCollector) RecordError(errorType, method, endpoint string) {
	m.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}

// RecordRateLimiterTokens records the limiter's available tokens.
func (m *MetricsCollector) RecordRateLimiterTokens(name string, tokens int) {
	m.rateLimiterTokens.WithLabelValues(name).Set(float64(tokens))
}

// RecordCircuitBreakerState records the breaker state.
func (m *MetricsCollector) RecordCircuitBreakerState(name string, state CircuitState) {
	m.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}
