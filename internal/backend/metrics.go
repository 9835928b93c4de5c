package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for RequestsTotal.
const (
	OutcomeOK                 = "ok"
	OutcomeAPIError           = "api_error"
	OutcomeUnauthorized       = "unauthorized"
	OutcomeTransportError     = "transport_error"
	OutcomeMissingCredentials = "missing_credentials"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dashboard",
				Subsystem: "backend",
				Name:      "requests_total",
				Help:      "Backend API calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dashboard",
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Backend API call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) observe(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, outcome).Inc()
	if outcome != OutcomeMissingCredentials {
		m.RequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}
