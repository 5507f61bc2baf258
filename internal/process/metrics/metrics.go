package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for onboarding processes.
type Metrics struct {
	Started        prometheus.Counter
	Terminated     *prometheus.CounterVec
	ErrorsRecorded *prometheus.CounterVec
}

// New registers the process metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Started: f.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_processes_started_total",
			Help: "Onboarding processes created",
		}),
		Terminated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_processes_terminated_total",
			Help: "Onboarding processes reaching a final status, by status and failure origin",
		}, []string{"status", "origin"}),
		ErrorsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_process_errors_total",
			Help: "Scored process errors by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncrementStarted() {
	if m != nil {
		m.Started.Inc()
	}
}

func (m *Metrics) IncrementTerminated(status, origin string) {
	if m != nil {
		m.Terminated.WithLabelValues(status, origin).Inc()
	}
}

func (m *Metrics) IncrementErrorRecorded(errType string) {
	if m != nil {
		m.ErrorsRecorded.WithLabelValues(errType).Inc()
	}
}
