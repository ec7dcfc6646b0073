package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for identity reconciliation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoginOutcomes        *prometheus.CounterVec
	DiagnosticStates     *prometheus.CounterVec
	RegistrationOutcomes *prometheus.CounterVec
	RepairOutcomes       *prometheus.CounterVec
	IdentityCallDuration *prometheus.HistogramVec
	ThrottleTrips        prometheus.Counter
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_login_outcomes_total",
			Help: "Login attempts by outcome (success or error code)",
		}, []string{"outcome"}),
		DiagnosticStates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_identity_diagnosis_total",
			Help: "Diagnostic classifications by resulting state",
		}, []string{"state"}),
		RegistrationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_registration_outcomes_total",
			Help: "Registrations by outcome and deferred reason",
		}, []string{"outcome", "reason"}),
		RepairOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_identity_repairs_total",
			Help: "Repair operations by kind and outcome",
		}, []string{"repair", "outcome"}),
		IdentityCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_identity_call_duration_seconds",
			Help:    "Latency of calls to the identity service by operation and result kind",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"op", "result"}),
		ThrottleTrips: factory.NewCounter(prometheus.CounterOpts{
			Name: "storefront_identity_throttle_trips_total",
			Help: "Times the identity throttle latch was tripped",
		}),
	}
}

func (m *Metrics) IncrementLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementDiagnosis(state string) {
	if m == nil {
		return
	}
	m.DiagnosticStates.WithLabelValues(state).Inc()
}

func (m *Metrics) IncrementRegistration(outcome, reason string) {
	if m == nil {
		return
	}
	m.RegistrationOutcomes.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) IncrementRepair(repair, outcome string) {
	if m == nil {
		return
	}
	m.RepairOutcomes.WithLabelValues(repair, outcome).Inc()
}

// ObserveIdentityCall records the latency of one identity service call.
// result is "ok" or the normalized error kind.
func (m *Metrics) ObserveIdentityCall(op, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IdentityCallDuration.WithLabelValues(op, result).Observe(elapsed.Seconds())
}

func (m *Metrics) IncrementThrottleTrips() {
	if m == nil {
		return
	}
	m.ThrottleTrips.Inc()
}
