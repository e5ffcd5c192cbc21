package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"id-recon/internal/contact/models"
)

type Metrics struct {
	IdentifyOutcomes *prometheus.CounterVec
	ConflictRetries  prometheus.Counter
	Demotions        prometheus.Counter
	ClosureSize      prometheus.Histogram
	IdentifyDuration prometheus.Histogram
}

// New registers the reconciliation metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IdentifyOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recon_identify_total",
			Help: "Total number of successful reconciliations by outcome",
		}, []string{"outcome"}),
		ConflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_identify_conflict_retries_total",
			Help: "Total number of reconciliations retried after a serialization conflict",
		}),
		Demotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_primary_demotions_total",
			Help: "Total number of primaries demoted by merges",
		}),
		ClosureSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recon_closure_size",
			Help:    "Number of contacts in the resolved closure",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
		IdentifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recon_identify_duration_seconds",
			Help:    "Time spent reconciling one observation, retries included",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveIdentify(outcome models.Outcome, closureSize, demotions int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IdentifyOutcomes.WithLabelValues(string(outcome)).Inc()
	m.ClosureSize.Observe(float64(closureSize))
	m.Demotions.Add(float64(demotions))
	m.IdentifyDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementConflictRetries() {
	if m == nil {
		return
	}
	m.ConflictRetries.Inc()
}
