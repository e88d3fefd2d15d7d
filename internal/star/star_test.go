// Public domain.

package star_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/soniakeys/unit"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/gdark"
	"github.com/pars-astro/pars/internal/ldfit"
	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/quad"
	"github.com/pars-astro/pars/internal/roche"
	"github.com/pars-astro/pars/internal/star"
)

// gray returns a store with the same fit c at every node of a grid
// spanning teff and wl.
func gray(teff, wl [2]float64, c ...float64) (*ldstore.Store, error) {
	g := ldstore.NewGrid(teff[:], []float64{-5, 10}, wl[:], nil, len(c)-1)
	for it := range g.Teff {
		for ig := range g.LogG {
			for iw := range g.Wavelength {
				if err := g.Put(it, ig, iw, ldfit.Set{Coef: [][]float64{c}}, 0); err != nil {
					return nil, err
				}
			}
		}
	}
	return ldstore.New(g)
}

func grayStore(t *testing.T, teff, wl [2]float64, c ...float64) *ldstore.Store {
	s, err := gray(teff, wl, c...)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

var (
	wide = [2]float64{1000, 100000}
	sun  = star.RotationState{Omega: 0, L: 1, M: 1, Req: 1}
)

// area of the solar disk in cm²
var disk = math.Pi * astro.Rsun * astro.Rsun

func ExampleStar_ComputeFlux() {
	// linear limb darkening, u = .6
	store, _ := gray(wide, [2]float64{100, 10000}, .4, .6)
	s, _ := star.New(sun, store)
	m := s.NewMemo()
	for _, inc := range []float64{0, 45, 90} {
		r, _ := s.ComputeFlux(m, unit.AngleFromDeg(inc), 500)
		fmt.Printf("i=%2.0f  light/πR² = %.6f\n", inc, r.Light/disk)
	}
	// Output:
	// i= 0  light/πR² = 0.800000
	// i=45  light/πR² = 0.800000
	// i=90  light/πR² = 0.800000
}

func TestPoleOn(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, 1)
	for _, ω := range []float64{0, .5, .9} {
		rot := sun
		rot.Omega = ω
		s, err := star.New(rot, store)
		if err != nil {
			t.Fatal(err)
		}
		r, err := s.ComputeFlux(s.NewMemo(), 0, 500)
		if err != nil {
			t.Fatal(err)
		}
		// seen pole-on the projected area is the equatorial disk
		if math.Abs(r.Light/disk-1) > 1e-12 {
			t.Errorf("ω=%g light/πR² = %.15g", ω, r.Light/disk)
		}
	}
}

func TestLinearLaw(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, .4, .6)
	s, err := star.New(sun, store)
	if err != nil {
		t.Fatal(err)
	}
	m := s.NewMemo()
	for _, deg := range []float64{0, 10, 30, 60, 80, 90, 120} {
		r, err := s.ComputeFlux(m, unit.AngleFromDeg(deg), 500)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(r.Light/disk/.8-1) > 1e-7 {
			t.Errorf("i=%g light/πR² = %.12g", deg, r.Light/disk)
		}
	}
}

// A gray star of unit intensity shows its projected area, which for a
// rotating star is largest pole-on.
func TestProjectedArea(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, 1)
	s, err := star.New(star.RotationState{Omega: .9, L: 1, M: 1, Req: 1}, store)
	if err != nil {
		t.Fatal(err)
	}
	m := s.NewMemo()
	var last float64
	for k, deg := range []float64{90, 60, 30, 0} {
		r, err := s.ComputeFlux(m, unit.AngleFromDeg(deg), 500)
		if err != nil {
			t.Fatal(err)
		}
		if k > 0 && !(r.Light > last) {
			t.Fatalf("i=%g light %g not above %g", deg, r.Light, last)
		}
		last = r.Light
	}
}

func TestClamped(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, -.1, 1.1)
	s, _ := star.New(sun, store)
	r, err := s.ComputeFlux(s.NewMemo(), 0, 500)
	if err != nil {
		t.Fatal(err)
	}
	// 2π ∫ max(1.1mu - .1, 0) mu dmu
	m0 := 1 / 11.
	want := 2 * math.Pi * ((1.1/3 - .05) - (1.1*m0*m0*m0/3 - .05*m0*m0))
	if math.Abs(r.Light/(astro.Rsun*astro.Rsun)/want-1) > 1e-5 {
		t.Fatal(r.Light/(astro.Rsun*astro.Rsun), want)
	}
	if len(r.Warnings) == 0 {
		t.Fatal("no warnings")
	}
	for _, w := range r.Warnings {
		if w.Kind != ldstore.Negative || w.Wavelength != 500 {
			t.Fatal(w)
		}
	}
}

func TestClampedLog(t *testing.T) {
	var b bytes.Buffer
	star.SetLogger(slog.New(slog.NewTextHandler(&b,
		&slog.HandlerOptions{Level: slog.LevelWarn})))
	defer star.SetLogger(nil)
	store := grayStore(t, wide, [2]float64{100, 10000}, -.1, 1.1)
	s, _ := star.New(sun, store)
	if _, err := s.ComputeFlux(s.NewMemo(), 0, 500); err != nil {
		t.Fatal(err)
	}
	if got := b.String(); strings.Count(got, "msg=\"clamped fit\"") != 1 ||
		!strings.Contains(got, "wavelength=500") {
		t.Fatalf("log %q", got)
	}
	// no fit goes negative
	b.Reset()
	store = grayStore(t, wide, [2]float64{100, 10000}, .4, .6)
	s, _ = star.New(sun, store)
	if _, err := s.ComputeFlux(s.NewMemo(), 0, 500); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Fatalf("log %q", b.String())
	}
}

func TestMemo(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, .4, .6)
	s, _ := star.New(star.RotationState{Omega: .7, L: 5, M: 2, Req: 2}, store)
	m := s.NewMemo()
	if _, err := s.ComputeFlux(m, unit.Angle(.5), 500); err != nil {
		t.Fatal(err)
	}
	n := m.Len()
	if n == 0 {
		t.Fatal("memo empty")
	}
	if _, err := s.ComputeFlux(m, unit.Angle(.5), 700); err != nil {
		t.Fatal(err)
	}
	if m.Len() != n {
		t.Fatalf("rings recomputed for a new wavelength: %d, %d", n, m.Len())
	}
	// the supplementary inclination sees the same rings
	if _, err := s.ComputeFlux(m, unit.Angle(math.Pi - .5), 500); err != nil {
		t.Fatal(err)
	}
	if m.Len() != n {
		t.Fatalf("rings recomputed for π-i: %d, %d", n, m.Len())
	}
	r, err := m.Ring(math.Pi - .5)
	if err != nil {
		t.Fatal(err)
	}
	if r2, _ := m.Ring(.5); r2 != r {
		t.Fatal("mirror ring not shared")
	}
	if _, err := m.Ring(4); err == nil {
		t.Fatal("expected theta out of range")
	}
}

func TestSpectrum(t *testing.T) {
	store := grayStore(t, wide, [2]float64{400, 600}, .4, .6)
	s, _ := star.New(sun, store)
	sp := s.Spectrum(s.NewMemo(), unit.AngleFromDeg(30), []float64{300, 500, 700})
	first := slices.Collect(sp.All())
	if len(first) != 3 {
		t.Fatal(len(first))
	}
	for k, r := range first {
		var be *ldstore.GridBoundsError
		if k == 1 {
			if r.Err != nil || r.Light == 0 {
				t.Fatal(r)
			}
			continue
		}
		if !errors.As(r.Err, &be) || be.Axis != "wavelength" || r.Light != 0 {
			t.Fatal(k, r)
		}
	}
	// restartable
	if again := slices.Collect(sp.All()); again[1].Light != first[1].Light {
		t.Fatal(again[1].Light, first[1].Light)
	}
	// early stop
	for r := range sp.All() {
		if r.Wavelength != 300 {
			t.Fatal(r.Wavelength)
		}
		break
	}
}

func TestTeffOutOfGrid(t *testing.T) {
	store := grayStore(t, [2]float64{1000, 2000}, [2]float64{400, 600}, 1)
	s, err := star.New(sun, store)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.ComputeFlux(s.NewMemo(), 0, 500)
	var be *ldstore.GridBoundsError
	if !errors.As(err, &be) || be.Axis != "teff" || be.Max != 2000 {
		t.Fatalf("got %v", err)
	}
	// the sweep continues past failed wavelengths
	res := slices.Collect(s.Spectrum(s.NewMemo(), 0, []float64{450, 500}).All())
	if len(res) != 2 || res[0].Err == nil || res[1].Err == nil {
		t.Fatal(res)
	}
}

func TestFatal(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, 1)
	_, err := star.New(star.RotationState{Omega: 1, L: 1, M: 1, Req: 1}, store)
	var ge *roche.GeometryDomainError
	if !errors.As(err, &ge) || ge.Param != "omega" {
		t.Fatalf("got %v", err)
	}
	_, err = star.New(star.RotationState{Omega: .9, L: 1, M: 1, Req: 1}, store,
		star.WithSolver(gdark.Config{MaxIter: 1, Tol: 1e-13}))
	var te *gdark.TemperatureSolveError
	if !errors.As(err, &te) {
		t.Fatalf("got %v", err)
	}
	if _, err = star.New(star.RotationState{L: 1, M: 0, Req: 1}, store); err == nil {
		t.Fatal("expected mass error")
	}
	if _, err = star.New(sun, store, star.WithRule(quad.Rule{})); err == nil {
		t.Fatal("expected rule error")
	}

	s, _ := star.New(sun, store)
	res := slices.Collect(s.Spectrum(s.NewMemo(), unit.Angle(4), []float64{450, 500}).All())
	if len(res) != 1 || !errors.As(res[0].Err, &ge) || ge.Param != "inclination" {
		t.Fatal(res)
	}

	s, _ = star.New(sun, nil)
	if _, err = s.ComputeFlux(s.NewMemo(), 0, 500); !errors.Is(err, star.ErrNoStore) {
		t.Fatalf("got %v", err)
	}
}

// Quadrature nodes move with inclination, so a sweep in fine steps puts
// nodes at many colatitudes near the equator.
func TestInclinationSweep(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, 1)
	step := .05
	if testing.Short() {
		step = .5
	}
	for _, ω := range []float64{.3, .8, .9, .95, .99} {
		rot := sun
		rot.Omega = ω
		s, err := star.New(rot, store)
		if err != nil {
			t.Fatal(err)
		}
		m := s.NewMemo()
		incs := []float64{2.30, 3.17}
		for d := 0.; d <= 90; d += step {
			incs = append(incs, d)
		}
		for _, d := range incs {
			r, err := s.ComputeFlux(m, unit.AngleFromDeg(d), 500)
			if err != nil {
				t.Fatalf("ω=%g i=%.2f°: %v", ω, d, err)
			}
			if !(r.Light > 0) {
				t.Fatalf("ω=%g i=%.2f°: light %g", ω, d, r.Light)
			}
		}
	}
}

func TestSweep(t *testing.T) {
	store := grayStore(t, wide, [2]float64{100, 10000}, .4, .6)
	req := star.Request{
		Rotation: star.RotationState{Omega: .6, L: 3, M: 1.5, Req: 1.5},
		Inclinations: []unit.Angle{0, unit.AngleFromDeg(30),
			unit.AngleFromDeg(60), unit.AngleFromDeg(90)},
		Wavelengths: []float64{400, 500, 600},
	}
	out, err := star.Observe(req, store, 3)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := star.New(req.Rotation, store)
	m := s.NewMemo()
	for k, inc := range req.Inclinations {
		if len(out[k]) != len(req.Wavelengths) {
			t.Fatal(k, len(out[k]))
		}
		for j, r := range out[k] {
			if r.Inclination != inc || r.Wavelength != req.Wavelengths[j] {
				t.Fatal(k, j, r)
			}
			want, _ := s.ComputeFlux(m, inc, r.Wavelength)
			if r.Light != want.Light {
				t.Fatal(k, j, r.Light, want.Light)
			}
		}
	}
}

func TestLuminosity(t *testing.T) {
	for _, ω := range []float64{0, .5, .9} {
		s, err := star.New(star.RotationState{Omega: ω, L: 10, M: 2, Req: 2}, nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range []quad.Rule{quad.Default, {Order: 8, Panels: 64}} {
			l, e, err := s.Luminosity(r)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(l/(10*astro.Lsun)-1) > 1e-9 {
				t.Errorf("ω=%g rule %v: L = %.12g Lsun", ω, r, l/astro.Lsun)
			}
			if !(e >= 0 && e < 1e-9*l) {
				t.Errorf("ω=%g rule %v: error estimate %g Lsun", ω, r, e/astro.Lsun)
			}
		}
	}
}

func TestLuminosityEstimate(t *testing.T) {
	s, _ := star.New(star.RotationState{Omega: .95, L: 1, M: 1, Req: 1}, nil)
	coarse := quad.Rule{Order: 2, Panels: 2}
	l, e, err := s.Luminosity(coarse)
	if err != nil {
		t.Fatal(err)
	}
	// a rough rule reports a rough result
	if e == 0 || math.Abs(l/astro.Lsun-1) > 10*e/astro.Lsun {
		t.Fatalf("L = %g Lsun, estimate %g", l/astro.Lsun, e/astro.Lsun)
	}
	if _, _, err := s.Luminosity(quad.Rule{}); err == nil {
		t.Fatal("invalid rule: no error")
	}
}

func TestTable(t *testing.T) {
	s, _ := star.New(star.RotationState{Omega: .8, L: 1, M: 1, Req: 1}, nil)
	rows, err := s.Table(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 || rows[0].Theta != 0 || rows[4].Theta.Rad() != math.Pi/2 {
		t.Fatal(rows)
	}
	if math.Abs(rows[0].R-1/1.32) > 1e-12 || rows[4].R != 1 {
		t.Fatal(rows[0].R, rows[4].R)
	}
	for k := 1; k < len(rows); k++ {
		if !(rows[k].Teff < rows[k-1].Teff && rows[k].LogG < rows[k-1].LogG) {
			t.Fatal(k, rows[k-1], rows[k])
		}
	}
	if _, err = s.Table(1); err == nil {
		t.Fatal("expected error")
	}
}

func TestBolometric(t *testing.T) {
	wl := []float64{400, 500, 600, 700}
	res := make([]star.FluxResult, len(wl))
	for k := range res {
		res[k] = star.FluxResult{Wavelength: wl[k], Light: 1}
	}
	res[3].Err = errors.New("failed")
	want := astro.Bolometric([]float64{1, 1, 1}, wl[:3])
	if got := star.Bolometric(res); got != want || got == 0 {
		t.Fatal(got, want)
	}
}

func TestFilter(t *testing.T) {
	p, err := astro.NewPassband([]float64{500, 550, 600}, []float64{0, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	var res []star.FluxResult
	for wl := 400.; wl <= 700; wl += 10 {
		res = append(res, star.FluxResult{Wavelength: wl, Light: astro.PerHz(1, wl)})
	}
	want := astro.PerHz(1, p.Mean())
	got, err := star.Filter(res, p, 0, 3.1)
	if err != nil || math.Abs(got/want-1) > 1e-12 {
		t.Fatal(got, want, err)
	}
	dim, err := star.Filter(res, p, 1, 3.1)
	if err != nil || !(dim < got && dim > got/10) {
		t.Fatal(dim, got, err)
	}
	res[0].Err = errors.New("failed")
	if got, _ := star.Filter(res, p, 1, 3.1); math.IsNaN(got) {
		t.Fatal("failure outside passband")
	}
	res[15].Err = errors.New("failed") // 550 nm
	if got, _ := star.Filter(res, p, 1, 3.1); !math.IsNaN(got) {
		t.Fatal("failure inside passband:", got)
	}

	// no extinction curve beyond 6 µm
	ir, _ := astro.NewPassband([]float64{7000, 8000}, []float64{1, 1})
	res = []star.FluxResult{{Wavelength: 7500, Light: 1}}
	if _, err := star.Filter(res, ir, 1, 3.1); err == nil {
		t.Fatal("no error")
	}
	if _, err := star.Filter(res, ir, 0, 3.1); err != nil {
		t.Fatal(err)
	}
}
