package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for verification transitions.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	Completed   *prometheus.CounterVec
}

// New registers the verification metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_verification_transitions_total",
			Help: "Verification state transitions, by source state, target state and event",
		}, []string{"from", "to", "event"}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_verification_events_rejected_total",
			Help: "Events refused by the state machine or lost to a concurrent update, by event and reason",
		}, []string{"event", "reason"}),
		Completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_verifications_completed_total",
			Help: "Verifications reaching a terminal state, by status",
		}, []string{"status"}),
	}
}

func (m *Metrics) IncrementTransition(from, to, event string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to, event).Inc()
	}
}

func (m *Metrics) IncrementRejected(event, reason string) {
	if m != nil {
		m.Rejected.WithLabelValues(event, reason).Inc()
	}
}

func (m *Metrics) IncrementCompleted(status string) {
	if m != nil {
		m.Completed.WithLabelValues(status).Inc()
	}
}
