package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records analysis runs. Collectors are registered on the Registerer
// given to NewMetrics; a nil Registerer leaves them unregistered.
type Metrics struct {
	runs          *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	groupFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: outcome (completed, failed)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codearch",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Analysis runs by outcome",
		}, []string{"outcome"}),
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "codearch",
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each analysis phase",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		// Labels: kind (summary, explanation)
		groupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codearch",
			Subsystem: "pipeline",
			Name:      "enrichment_group_failures_total",
			Help:      "Enrichment groups replaced by placeholders",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observeRun(outcome string) {
	m.runs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observePhase(phase string, d time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) groupFailed(kind string) {
	m.groupFailures.WithLabelValues(kind).Inc()
}
