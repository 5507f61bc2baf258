package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for scheduled jobs and their leases.
type Metrics struct {
	Runs          *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	LeaseSkipped  *prometheus.CounterVec
	LeaseFailures *prometheus.CounterVec
	RowsProcessed *prometheus.CounterVec
}

// New registers the scheduler metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_scheduler_job_runs_total",
			Help: "Scheduled job runs, by job and outcome",
		}, []string{"job", "outcome"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboarding_scheduler_job_duration_seconds",
			Help:    "Duration of scheduled job runs that held the lease",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		LeaseSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_scheduler_lease_skipped_total",
			Help: "Ticks skipped because another instance held the job lease",
		}, []string{"job"}),
		LeaseFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_scheduler_lease_failures_total",
			Help: "Lease store errors, by job and operation",
		}, []string{"job", "op"}),
		RowsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_batch_rows_total",
			Help: "Rows visited by batch jobs, by job and result",
		}, []string{"job", "result"}),
	}
}

func (m *Metrics) IncrementRun(job, outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(job, outcome).Inc()
	}
}

func (m *Metrics) ObserveRun(job string, d time.Duration) {
	if m != nil {
		m.RunDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementLeaseSkipped(job string) {
	if m != nil {
		m.LeaseSkipped.WithLabelValues(job).Inc()
	}
}

func (m *Metrics) IncrementLeaseFailure(job, op string) {
	if m != nil {
		m.LeaseFailures.WithLabelValues(job, op).Inc()
	}
}

func (m *Metrics) IncrementRow(job, result string) {
	if m != nil {
		m.RowsProcessed.WithLabelValues(job, result).Inc()
	}
}

func (m *Metrics) IncrementRowBy(job, result string, n int) {
	if m != nil {
		m.RowsProcessed.WithLabelValues(job, result).Add(float64(n))
	}
}
