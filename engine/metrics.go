package engine

import (
	"errors"

	"github.com/bcdannyboy/quantbox/models"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Computations   *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
	SimulatedPaths prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quantbox",
			Name:      "computations_total",
			Help:      "Pricing computations by operation and outcome",
		}, []string{"operation", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quantbox",
			Name:      "computation_seconds",
			Help:      "Wall-clock time spent per pricing operation",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"operation"}),
		SimulatedPaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quantbox",
			Name:      "simulated_paths_total",
			Help:      "Monte Carlo paths simulated",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Computations, m.Duration, m.SimulatedPaths)
	}
	return m
}

// Outcome labels an error for the computations counter.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, models.ErrComputationTimeout):
		return "computation_timeout"
	case errors.Is(err, models.ErrNumericInstability):
		return "numeric_instability"
	}
	return "error"
}
