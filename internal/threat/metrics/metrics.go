package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the detection engine. A nil *Metrics
// is valid and records nothing, so unit tests can skip registry wiring.
type Metrics struct {
	Detections     *prometheus.CounterVec
	Mitigations    prometheus.Counter
	TrackedEvents  prometheus.Gauge
	BaselinePairs  prometheus.Gauge
	AnalyzedEvents prometheus.Counter
}

// New creates and registers all detection metrics.
func New() *Metrics {
	return &Metrics{
		Detections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_threat_detections_total",
			Help: "Total detections emitted, by detection type",
		}, []string{"type"}),
		Mitigations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_threat_mitigations_total",
			Help: "Total automated mitigations dispatched",
		}),
		TrackedEvents: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_threat_tracked_events",
			Help: "Events currently held in the sequence window",
		}),
		BaselinePairs: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_threat_baseline_pairs",
			Help: "Subject-action pairs currently tracked by the behavior baseline",
		}),
		AnalyzedEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_threat_analyzed_events_total",
			Help: "Total events passed through the analysis pipeline",
		}),
	}
}

func (m *Metrics) IncDetections(detectionType string) {
	if m != nil {
		m.Detections.WithLabelValues(detectionType).Inc()
	}
}

func (m *Metrics) IncMitigations() {
	if m != nil {
		m.Mitigations.Inc()
	}
}

func (m *Metrics) SetTrackedEvents(n int) {
	if m != nil {
		m.TrackedEvents.Set(float64(n))
	}
}

func (m *Metrics) SetBaselinePairs(n int) {
	if m != nil {
		m.BaselinePairs.Set(float64(n))
	}
}

func (m *Metrics) IncAnalyzedEvents() {
	if m != nil {
		m.AnalyzedEvents.Inc()
	}
}
