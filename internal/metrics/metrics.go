// Package metrics exposes the gateway's runtime counters/gauges as
// Prometheus collectors, grounded on the pack's convention of a small
// struct of pre-registered vectors rather than ad-hoc global variables.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the collectors shared by the planter simulator (fixes
// sent, sessions active) and the agent state (job running).
type Registry struct {
	FixesSent     *prometheus.CounterVec
	SessionsActive prometheus.Gauge
	JobRunning    prometheus.Gauge
}

// New creates a Registry and registers its collectors with reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer to expose on the default /metrics handler.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		FixesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fieldgate",
			Name:      "gnss_fixes_sent_total",
			Help:      "Number of GNSS_FIX messages successfully delivered to a monitor.",
		}, []string{"session_id"}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fieldgate",
			Name:      "sessions_active",
			Help:      "Number of sessions currently registered with the telemetry publisher.",
		}),
		JobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fieldgate",
			Name:      "job_running",
			Help:      "1 when a planting job is running, 0 otherwise.",
		}),
	}
	reg.MustRegister(m.FixesSent, m.SessionsActive, m.JobRunning)
	return m
}
