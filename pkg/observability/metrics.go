package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome classes recorded per operation.
const (
	OutcomeOK             = "ok"
	OutcomeNotFound       = "not_found"
	OutcomeTransportError = "transport_error"
	OutcomeAuthError      = "auth_error"
)

// Metrics holds the Prometheus collectors for the Sluice engine.
// A nil *Metrics is valid and records nothing, so components can take it
// as an optional collaborator.
type Metrics struct {
	sessionsOpened *prometheus.CounterVec
	queriesIssued  *prometheus.CounterVec
	operations     *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
// Pass prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sluice",
			Name:      "sessions_opened_total",
			Help:      "Backend sessions opened, by handshake result.",
		}, []string{"result"}),
		queriesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sluice",
			Name:      "queries_issued_total",
			Help:      "Read queries issued, by backend collection.",
		}, []string{"collection"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sluice",
			Name:      "operations_total",
			Help:      "Pipeline operations executed, by name and outcome.",
		}, []string{"operation", "outcome"}),
	}

	reg.MustRegister(m.sessionsOpened, m.queriesIssued, m.operations)
	return m
}

// SessionOpened records a handshake attempt.
func (m *Metrics) SessionOpened(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.sessionsOpened.WithLabelValues(result).Inc()
}

// QueryIssued records one read against a collection.
func (m *Metrics) QueryIssued(collection string) {
	if m == nil {
		return
	}
	m.queriesIssued.WithLabelValues(collection).Inc()
}

// OperationFinished records the outcome class of one operation.
func (m *Metrics) OperationFinished(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}
