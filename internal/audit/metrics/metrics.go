package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit pipeline. A nil *Metrics is
// valid and records nothing, so unit tests can skip registry wiring.
type Metrics struct {
	EventsLogged  prometheus.Counter
	EventsDropped prometheus.Counter
	FlushFailures prometheus.Counter
	AlertsSent    prometheus.Counter
	QueueDepth    prometheus.Gauge
}

// New creates and registers all audit metrics.
func New() *Metrics {
	return &Metrics{
		EventsLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_audit_events_logged_total",
			Help: "Total number of audit events accepted for logging",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_audit_events_dropped_total",
			Help: "Total number of audit events dropped by the bounded queue",
		}),
		FlushFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_audit_flush_failures_total",
			Help: "Total number of failed audit flush attempts",
		}),
		AlertsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_audit_alerts_sent_total",
			Help: "Total number of real-time alerts dispatched",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_audit_queue_depth",
			Help: "Current number of audit events awaiting flush",
		}),
	}
}

func (m *Metrics) IncEventsLogged() {
	if m != nil {
		m.EventsLogged.Inc()
	}
}

func (m *Metrics) AddEventsDropped(n float64) {
	if m != nil {
		m.EventsDropped.Add(n)
	}
}

func (m *Metrics) IncFlushFailures() {
	if m != nil {
		m.FlushFailures.Inc()
	}
}

func (m *Metrics) IncAlertsSent() {
	if m != nil {
		m.AlertsSent.Inc()
	}
}

func (m *Metrics) SetQueueDepth(depth int) {
	if m != nil {
		m.QueueDepth.Set(float64(depth))
	}
}
