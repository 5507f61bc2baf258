package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document pipeline.
type Metrics struct {
	Submitted *prometheus.CounterVec
	Outcomes  *prometheus.CounterVec
}

// New registers the document metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_documents_submitted_total",
			Help: "Documents accepted for upload by the provider, by type",
		}, []string{"provider", "type"}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_document_outcomes_total",
			Help: "Provider verdicts applied to documents, by phase and status",
		}, []string{"provider", "phase", "status"}),
	}
}

func (m *Metrics) IncrementSubmitted(provider, docType string) {
	if m != nil {
		m.Submitted.WithLabelValues(provider, docType).Inc()
	}
}

func (m *Metrics) IncrementOutcome(provider, phase, status string) {
	if m != nil {
		m.Outcomes.WithLabelValues(provider, phase, status).Inc()
	}
}
