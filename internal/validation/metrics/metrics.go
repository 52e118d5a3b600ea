package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for input validation. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Validations    prometheus.Counter
	Rejections     *prometheus.CounterVec
	CacheHits      prometheus.Counter
	InternalErrors prometheus.Counter
}

// New creates and registers all validation metrics.
func New() *Metrics {
	return &Metrics{
		Validations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_validation_checks_total",
			Help: "Total number of validation passes executed",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_validation_rejections_total",
			Help: "Total number of inputs rejected, by reason",
		}, []string{"reason"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_validation_cache_hits_total",
			Help: "Total number of validation results served from cache",
		}),
		InternalErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aegis_validation_internal_errors_total",
			Help: "Total number of validation passes that failed closed",
		}),
	}
}

func (m *Metrics) IncValidations() {
	if m != nil {
		m.Validations.Inc()
	}
}

func (m *Metrics) IncRejections(reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncCacheHits() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) IncInternalErrors() {
	if m != nil {
		m.InternalErrors.Inc()
	}
}
