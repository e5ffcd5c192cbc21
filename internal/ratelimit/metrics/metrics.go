package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Allowed        *prometheus.CounterVec
	Rejected       *prometheus.CounterVec
	LimiterErrors  prometheus.Counter
	FallbackChecks prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Allowed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_ratelimit_allowed_total",
			Help: "Requests admitted by the rate limiter",
		}, []string{"route"}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_ratelimit_rejected_total",
			Help: "Requests rejected with 429 by the rate limiter",
		}, []string{"route"}),
		LimiterErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed against the primary store",
		}),
		FallbackChecks: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_ratelimit_fallback_checks_total",
			Help: "Rate limit checks answered by the in-memory fallback",
		}),
	}
}

func (m *Metrics) ObserveDecision(route string, allowed bool) {
	if m == nil {
		return
	}
	if allowed {
		m.Allowed.WithLabelValues(route).Inc()
		return
	}
	m.Rejected.WithLabelValues(route).Inc()
}

func (m *Metrics) IncrementLimiterErrors() {
	if m == nil {
		return
	}
	m.LimiterErrors.Inc()
}

func (m *Metrics) IncrementFallbackChecks() {
	if m == nil {
		return
	}
	m.FallbackChecks.Inc()
}
