// Public domain.

// Package metrics counts the work done by a spectrum computation with
// Prometheus collectors.  Batch programs write the metrics to a text file
// for the node exporter's textfile collector.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/star"
)

// Collector bundles the metrics of one program run.
type Collector struct {
	gatherer prometheus.Gatherer

	Evaluations *prometheus.CounterVec // by result: ok, grid_bounds, error
	GridBounds  *prometheus.CounterVec // by axis
	Warnings    *prometheus.CounterVec // by kind
	Duration    prometheus.Histogram   // seconds per inclination
}

// New registers the metrics with reg, the default registry when nil.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{gatherer: prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	var err error
	if c.Evaluations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pars_flux_evaluations_total",
		Help: "Flux evaluations, one per inclination and wavelength, by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if c.GridBounds, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pars_grid_bounds_errors_total",
		Help: "Flux evaluations failed by a query outside the limb darkening grid, by axis.",
	}, []string{"axis"})); err != nil {
		return nil, err
	}
	if c.Warnings, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pars_fit_quality_warnings_total",
		Help: "Limb darkening fit quality warnings attached to results, by kind.",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if c.Duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pars_inclination_duration_seconds",
		Help:    "Time to compute the spectrum at one inclination.",
		Buckets: prometheus.ExponentialBuckets(.001, 4, 10),
	})); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, fmt.Errorf("metrics: collector already registered with incompatible type: %w", err)
		}
		return c, err
	}
	return c, nil
}

// Record counts the results of one inclination computed in time d.
func (c *Collector) Record(results []star.FluxResult, d time.Duration) {
	if c == nil {
		return
	}
	c.Duration.Observe(d.Seconds())
	for _, r := range results {
		var be *ldstore.GridBoundsError
		switch {
		case r.Err == nil:
			c.Evaluations.WithLabelValues("ok").Inc()
		case errors.As(r.Err, &be):
			c.Evaluations.WithLabelValues("grid_bounds").Inc()
			c.GridBounds.WithLabelValues(be.Axis).Inc()
		default:
			c.Evaluations.WithLabelValues("error").Inc()
		}
		for _, w := range r.Warnings {
			c.Warnings.WithLabelValues(w.Kind.String()).Inc()
		}
	}
}

// WriteFile writes all gathered metrics in the text exposition format.
func (c *Collector) WriteFile(fn string) error {
	return prometheus.WriteToTextfile(fn, c.gatherer)
}
