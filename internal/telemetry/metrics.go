package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CarrierErrors      *prometheus.CounterVec
	RetryAttempts      *prometheus.CounterVec
	BreakerTransitions *prometheus.CounterVec
	TokenRefreshes     *prometheus.CounterVec
}

// NewMetrics creates and registers Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_requests_total",
				Help: "Total number of rate requests by carrier and status",
			},
			[]string{"carrier", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratebridge_request_duration_seconds",
				Help:    "Rate request duration in seconds by carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"carrier"},
		),
		CarrierErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_carrier_errors_total",
				Help: "Total carrier API errors by carrier and error code",
			},
			[]string{"carrier", "code"},
		),
		RetryAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_retry_attempts_total",
				Help: "Total backoff retries by carrier",
			},
			[]string{"carrier"},
		),
		BreakerTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_breaker_transitions_total",
				Help: "Circuit breaker state transitions by carrier and target state",
			},
			[]string{"carrier", "to"},
		),
		TokenRefreshes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratebridge_token_refreshes_total",
				Help: "OAuth token refreshes by carrier and outcome",
			},
			[]string{"carrier", "status"},
		),
	}
}

// RecordRequest records a rate request metric.
func (m *Metrics) RecordRequest(carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(carrier, status).Inc()
	m.RequestDuration.WithLabelValues(carrier).Observe(duration)
}

// RecordError records a carrier error metric.
func (m *Metrics) RecordError(carrier, code string) {
	m.CarrierErrors.WithLabelValues(carrier, code).Inc()
}

// RecordRetry records a backoff retry.
func (m *Metrics) RecordRetry(carrier string) {
	m.RetryAttempts.WithLabelValues(carrier).Inc()
}

// RecordBreakerTransition records a circuit breaker transition.
func (m *Metrics) RecordBreakerTransition(carrier, to string) {
	m.BreakerTransitions.WithLabelValues(carrier, to).Inc()
}

// RecordTokenRefresh records a token refresh outcome.
func (m *Metrics) RecordTokenRefresh(carrier, status string) {
	m.TokenRefreshes.WithLabelValues(carrier, status).Inc()
}
