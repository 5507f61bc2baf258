package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics observes vendor call latency and outcome.
type Metrics struct {
	CallDuration *prometheus.HistogramVec
	CallErrors   *prometheus.CounterVec
	Circuit      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboarding_provider_call_duration_seconds",
			Help:    "Latency of external verification provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "operation"}),
		CallErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_provider_call_errors_total",
			Help: "Failed external verification provider calls, by category",
		}, []string{"provider", "operation", "category"}),
		Circuit: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_provider_circuit_transitions_total",
			Help: "Provider circuit breaker transitions, by target state",
		}, []string{"provider", "state"}),
	}
}

func (m *Metrics) ObserveCall(provider, operation string, d time.Duration) {
	if m != nil {
		m.CallDuration.WithLabelValues(provider, operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementError(provider, operation string, category ErrorCategory) {
	if m != nil {
		m.CallErrors.WithLabelValues(provider, operation, string(category)).Inc()
	}
}

func (m *Metrics) IncrementCircuit(provider, state string) {
	if m != nil {
		m.Circuit.WithLabelValues(provider, state).Inc()
	}
}
