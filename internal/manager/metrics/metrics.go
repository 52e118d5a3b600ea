package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the orchestrator's aggregate counters. A nil *Metrics is
// valid and records nothing, so unit tests can skip registry wiring.
type Metrics struct {
	Validations      prometheus.Counter
	PermissionChecks prometheus.Counter
	EventsLogged     prometheus.Counter
	ThreatsDetected  prometheus.Counter
	GatedCalls       *prometheus.CounterVec
}

// New creates and registers all orchestrator metrics.
func New() *Metrics {
	return &Metrics{
		Validations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_manager_validations_total",
			Help: "Total validation requests handled",
		}),
		PermissionChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_manager_permission_checks_total",
			Help: "Total authorization decisions handled",
		}),
		EventsLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_manager_events_logged_total",
			Help: "Total audit events accepted",
		}),
		ThreatsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_manager_threats_detected_total",
			Help: "Total threat detections emitted",
		}),
		GatedCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_manager_gated_calls_total",
			Help: "Calls short-circuited because the owning feature is disabled, by operation",
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncValidations() {
	if m != nil {
		m.Validations.Inc()
	}
}

func (m *Metrics) IncPermissionChecks() {
	if m != nil {
		m.PermissionChecks.Inc()
	}
}

func (m *Metrics) IncEventsLogged() {
	if m != nil {
		m.EventsLogged.Inc()
	}
}

func (m *Metrics) AddThreatsDetected(n int) {
	if m != nil {
		m.ThreatsDetected.Add(float64(n))
	}
}

func (m *Metrics) IncGatedCalls(operation string) {
	if m != nil {
		m.GatedCalls.WithLabelValues(operation).Inc()
	}
}
