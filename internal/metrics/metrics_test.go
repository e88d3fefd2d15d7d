// Public domain.

package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/metrics"
	"github.com/pars-astro/pars/internal/star"
)

func results() []star.FluxResult {
	return []star.FluxResult{
		{Wavelength: 400, Light: 1},
		{Wavelength: 500, Light: 1, Warnings: []ldstore.FitQualityWarning{
			{Teff: 9000, LogG: 4, Wavelength: 500, Kind: ldstore.Negative},
			{Teff: 9000, LogG: 4.5, Wavelength: 500, Kind: ldstore.Negative},
		}},
		{Wavelength: 600, Err: &ldstore.GridBoundsError{
			Axis: "wavelength", Value: 600, Min: 100, Max: 550}},
		{Wavelength: 700, Err: errors.New("boom")},
	}
}

func TestRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	c.Record(results(), 20*time.Millisecond)
	c.Record(results()[:1], 10*time.Millisecond)

	for _, x := range []struct {
		result string
		want   float64
	}{{"ok", 3}, {"grid_bounds", 1}, {"error", 1}} {
		if got := testutil.ToFloat64(c.Evaluations.WithLabelValues(x.result)); got != x.want {
			t.Errorf("evaluations %s = %v, want %v", x.result, got, x.want)
		}
	}
	if got := testutil.ToFloat64(c.GridBounds.WithLabelValues("wavelength")); got != 1 {
		t.Errorf("grid bounds = %v", got)
	}
	if got := testutil.ToFloat64(c.Warnings.WithLabelValues("negative")); got != 2 {
		t.Errorf("warnings = %v", got)
	}
	if n := testutil.CollectAndCount(c.Duration); n != 1 {
		t.Errorf("duration series = %d", n)
	}
}

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	a.Record(results()[:1], time.Millisecond)
	if got := testutil.ToFloat64(b.Evaluations.WithLabelValues("ok")); got != 1 {
		t.Fatalf("second collector does not share counters: %v", got)
	}
}

func TestWriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	c.Record(results(), time.Second)
	fn := filepath.Join(t.TempDir(), "pars.prom")
	if err = c.WriteFile(fn); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		`pars_flux_evaluations_total{result="ok"} 2`,
		`pars_grid_bounds_errors_total{axis="wavelength"} 1`,
		`pars_fit_quality_warnings_total{kind="negative"} 2`,
		"pars_inclination_duration_seconds_count 1",
	} {
		if !strings.Contains(string(b), s) {
			t.Errorf("missing %q in\n%s", s, b)
		}
	}
}

func TestNil(t *testing.T) {
	var c *metrics.Collector
	c.Record(results(), time.Second)
}
