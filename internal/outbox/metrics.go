package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published prometheus.Counter
	Failed    prometheus.Counter
}

// NewMetrics registers the outbox counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_outbox_published_total",
			Help: "Total number of identity events published to Kafka",
		}),
		Failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "recon_outbox_publish_failures_total",
			Help: "Total number of identity events that failed to publish",
		}),
	}
}

func (m *Metrics) IncPublished(n int) {
	if m == nil || n == 0 {
		return
	}
	m.Published.Add(float64(n))
}

func (m *Metrics) IncFailed(n int) {
	if m == nil || n == 0 {
		return
	}
	m.Failed.Add(float64(n))
}
