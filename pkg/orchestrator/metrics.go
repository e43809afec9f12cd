package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

// Metrics records submission outcomes and stage latencies
type Metrics struct {
	submissions   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when non-nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soilmaestro",
			Name:      "submissions_total",
			Help:      "Soil analysis submissions by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soilmaestro",
			Name:      "stage_duration_seconds",
			Help:      "Latency of the classification and narrative calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(m.submissions, m.stageDuration)
	}
	return m
}

func (m *Metrics) observeOutcome(err error) {
	if m == nil {
		return
	}
	outcome := outcomeOK
	if err != nil {
		outcome = string(typeOf(err))
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
