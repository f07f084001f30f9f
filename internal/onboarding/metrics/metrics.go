// Package metrics provides Prometheus metrics for the onboarding workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all onboarding metrics.
type Metrics struct {
	// Workflow metrics
	TransitionsTotal *prometheus.CounterVec // Committed step transitions by from, to, event
	SessionsStarted  prometheus.Counter     // Applicant registrations

	// Provider metrics
	VerificationsTotal          *prometheus.CounterVec   // Document checks by kind and outcome
	VerificationDurationSeconds *prometheus.HistogramVec // Provider latency by operation
	NameChecksTotal             *prometheus.CounterVec   // Name checks by result (available, taken, coalesced, error)
	IncorporationsTotal         *prometheus.CounterVec   // Incorporations by outcome

	// Store metrics
	CASConflictsTotal *prometheus.CounterVec // Lost compare-and-swap races by operation

	// Background workers
	SessionsAbandonedTotal prometheus.Counter // Sessions abandoned by the inactivity sweeper
}

// New creates a new Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against reg; tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residency_onboarding_transitions_total",
			Help: "Committed workflow transitions",
		}, []string{"from", "to", "event"}),

		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "residency_onboarding_sessions_started_total",
			Help: "Applicant sessions created",
		}),

		VerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residency_onboarding_verifications_total",
			Help: "Document verification calls by kind and outcome",
		}, []string{"kind", "outcome"}),

		VerificationDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "residency_onboarding_provider_duration_seconds",
			Help:    "Duration of provider calls by operation",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		NameChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residency_onboarding_name_checks_total",
			Help: "Entity name availability checks by result",
		}, []string{"result"}),

		IncorporationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residency_onboarding_incorporations_total",
			Help: "Entity incorporation attempts by outcome",
		}, []string{"outcome"}),

		CASConflictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "residency_onboarding_cas_conflicts_total",
			Help: "Compare-and-swap conflicts by operation",
		}, []string{"operation"}),

		SessionsAbandonedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "residency_onboarding_sessions_abandoned_total",
			Help: "Sessions abandoned after inactivity",
		}),
	}
}

// RecordTransition counts a committed transition.
func (m *Metrics) RecordTransition(from, to, event string) {
	m.TransitionsTotal.WithLabelValues(from, to, event).Inc()
}

// IncrementSessionsStarted counts a registration.
func (m *Metrics) IncrementSessionsStarted() {
	m.SessionsStarted.Inc()
}

// RecordVerification counts a document check outcome.
func (m *Metrics) RecordVerification(kind, outcome string) {
	m.VerificationsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveProviderDuration records provider latency.
func (m *Metrics) ObserveProviderDuration(operation string, durationSeconds float64) {
	m.VerificationDurationSeconds.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordNameCheck counts a name check result.
func (m *Metrics) RecordNameCheck(result string) {
	m.NameChecksTotal.WithLabelValues(result).Inc()
}

// RecordIncorporation counts an incorporation outcome.
func (m *Metrics) RecordIncorporation(outcome string) {
	m.IncorporationsTotal.WithLabelValues(outcome).Inc()
}

// RecordCASConflict counts a lost compare-and-swap.
func (m *Metrics) RecordCASConflict(operation string) {
	m.CASConflictsTotal.WithLabelValues(operation).Inc()
}

// IncrementAbandoned counts sessions closed by the sweeper.
func (m *Metrics) IncrementAbandoned() {
	m.SessionsAbandonedTotal.Inc()
}
