package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/erraggy/oasbind/internal/issues"
)

// Metrics holds the Prometheus collectors an Engine records into.
// A nil *Metrics records nothing.
type Metrics struct {
	conversions      *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	duration         *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oasbind_conversions_total",
				Help: "Total number of request conversions and response renderings by result",
			},
			[]string{"operation", "direction", "result"},
		),

		validationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oasbind_validation_errors_total",
				Help: "Total number of validation errors by kind",
			},
			[]string{"operation", "direction", "kind"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oasbind_conversion_duration_seconds",
				Help:    "Time spent converting requests and rendering responses in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation", "direction"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.conversions, m.validationErrors, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("pipeline: register metrics: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(operation, direction string, errs []ValidationError, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "valid"
	if len(errs) > 0 {
		result = "invalid"
	}
	m.conversions.WithLabelValues(operation, direction, result).Inc()
	for _, e := range errs {
		m.validationErrors.WithLabelValues(operation, direction, string(e.Kind)).Inc()
	}
	m.duration.WithLabelValues(operation, direction).Observe(elapsed.Seconds())
}

// errorKinds returns the distinct kinds of errs as strings, for span attributes.
func errorKinds(errs []ValidationError) []string {
	kinds := issues.Kinds(errs)
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
