package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for one-time codes.
type Metrics struct {
	Issued        *prometheus.CounterVec
	VerifyOutcome *prometheus.CounterVec
	Expired       prometheus.Counter
}

// New registers the OTP metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_otp_issued_total",
			Help: "One-time codes issued by type and whether it was a resend",
		}, []string{"type", "resend"}),

		VerifyOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_otp_verifications_total",
			Help: "One-time code verification attempts by type and outcome",
		}, []string{"type", "outcome"}), // outcome: "matched", "mismatch", "expired"

		Expired: f.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_otp_expired_total",
			Help: "One-time codes expired by the overdue sweep",
		}),
	}
}

func (m *Metrics) IncrementIssued(otpType string, resend bool) {
	if m != nil {
		r := "false"
		if resend {
			r = "true"
		}
		m.Issued.WithLabelValues(otpType, r).Inc()
	}
}

func (m *Metrics) IncrementVerifyOutcome(otpType, outcome string) {
	if m != nil {
		m.VerifyOutcome.WithLabelValues(otpType, outcome).Inc()
	}
}

func (m *Metrics) AddExpired(n int) {
	if m != nil {
		m.Expired.Add(float64(n))
	}
}
