package supervisor

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the supervisor's execution counters.
type Metrics struct {
	Runs       *prometheus.CounterVec
	Failures   *prometheus.CounterVec
	Registered prometheus.Gauge
}

// NewMetrics creates and registers the supervisor metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chron_job_runs_total",
			Help: "Job invocations started, by job name.",
		}, []string{"job"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chron_job_failures_total",
			Help: "Job invocations that exited non-zero, by job name.",
		}, []string{"job"}),
		Registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chron_jobs_registered",
			Help: "Jobs currently in the registry.",
		}),
	}
	reg.MustRegister(m.Runs, m.Failures, m.Registered)
	return m
}
