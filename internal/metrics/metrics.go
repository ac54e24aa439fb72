package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeValid              = "valid"
	OutcomeRateLimited        = "rate_limited"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeInvalidKey         = "invalid_key"
	OutcomeServiceUnavailable = "service_unavailable"
	OutcomeUsageLimitExceeded = "usage_limit_exceeded"
	OutcomeConfiguration      = "configuration_error"
	OutcomeInternal           = "internal_error"
)

var outcomes = []string{
	OutcomeValid,
	OutcomeRateLimited,
	OutcomeInvalidInput,
	OutcomeInvalidKey,
	OutcomeServiceUnavailable,
	OutcomeUsageLimitExceeded,
	OutcomeConfiguration,
	OutcomeInternal,
}

// Metrics holds the collectors of the validation service. A nil *Metrics is a no-op.
type Metrics struct {
	validations         *prometheus.CounterVec
	validationDuration  prometheus.Histogram
	rateLimitRejections prometheus.Counter
	rateLimitErrors     prometheus.Counter
	rateLimitEntries    prometheus.Gauge
	usageWriteFailures  prometheus.Counter
	usageReconciled     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apikey_validations_total",
				Help: "Total number of api key validations by outcome.",
			},
			[]string{"outcome"},
		),
		validationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "apikey_validation_duration_seconds",
				Help:    "Duration of api key validations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		rateLimitRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apikey_ratelimit_rejections_total",
				Help: "Total number of validation attempts rejected by the rate limiter.",
			},
		),
		rateLimitErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apikey_ratelimit_errors_total",
				Help: "Total number of rate limiter backend failures.",
			},
		),
		rateLimitEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "apikey_ratelimit_entries",
				Help: "Number of client entries held by the in-memory rate limiter after the last sweep.",
			},
		),
		usageWriteFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "apikey_usage_write_failures_total",
				Help: "Total number of usage updates that failed after a successful validation.",
			},
		),
		usageReconciled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "apikey_usage_reconciliations_total",
				Help: "Total number of deferred usage writes by result.",
			},
			[]string{"result"},
		),
	}

	for _, o := range outcomes {
		m.validations.WithLabelValues(o)
	}

	return m
}

func (m *Metrics) ObserveValidation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(outcome).Inc()
	m.validationDuration.Observe(d.Seconds())
}

func (m *Metrics) IncRateLimitRejections() {
	if m == nil {
		return
	}
	m.rateLimitRejections.Inc()
}

func (m *Metrics) IncRateLimitErrors() {
	if m == nil {
		return
	}
	m.rateLimitErrors.Inc()
}

func (m *Metrics) SetRateLimitEntries(n int) {
	if m == nil {
		return
	}
	m.rateLimitEntries.Set(float64(n))
}

func (m *Metrics) IncUsageWriteFailures() {
	if m == nil {
		return
	}
	m.usageWriteFailures.Inc()
}

func (m *Metrics) IncUsageReconciled(result string) {
	if m == nil {
		return
	}
	m.usageReconciled.WithLabelValues(result).Inc()
}
