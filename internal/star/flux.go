// Public domain.

package star

import (
	"cmp"
	"errors"
	"iter"
	"math"
	"slices"
	"sync"

	"github.com/soniakeys/unit"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/azint"
	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/roche"
)

// FluxResult is the light of a star at one inclination and wavelength.
//
// Light is in erg s⁻¹ Hz⁻¹ sr⁻¹ when the fit grid holds intensities in
// erg s⁻¹ cm⁻² Hz⁻¹ sr⁻¹.  Err is set when this point could not be
// computed, in which case Light is zero.
type FluxResult struct {
	Inclination unit.Angle
	Wavelength  float64 // nm
	Light       float64
	Warnings    []ldstore.FitQualityWarning
	Err         error
}

// ErrNoStore is returned for light computations on a star with no limb
// darkening store.
var ErrNoStore = errors.New("star: no limb darkening fits")

// node is one quadrature node of a view.
type node struct {
	w    float64 // quadrature weight times area element
	ring *Ring
	az   azint.Ring
}

// view is the visible surface at one inclination, as quadrature nodes.
type view struct {
	inc   unit.Angle
	nodes []node
}

// view classifies the rings at the quadrature nodes for inclination inc.
// Breakpoints are placed where rings start to be partially visible and
// where they become hidden.  Beyond the second the surface is hidden and
// no nodes are placed.
func (s *Star) view(m *Memo, inc unit.Angle) (*view, error) {
	i := inc.Rad()
	if !(i >= 0 && i <= math.Pi) {
		return nil, &roche.GeometryDomainError{Param: "inclination", Value: i}
	}
	if i > math.Pi/2 {
		i = math.Pi - i
	}
	t1, err := s.surf.PsiInverse(math.Pi/2 - i)
	if err != nil {
		return nil, err
	}
	x, w := s.rule.Nodes(0, t1, math.Pi-t1)
	v := &view{inc: inc, nodes: make([]node, 0, len(x))}
	for k, theta := range x {
		r, err := m.Ring(theta)
		if err != nil {
			return nil, err
		}
		p := r.Point
		if theta > math.Pi/2 {
			p = roche.Mirror(p)
		}
		az := azint.Classify(unit.Angle(i), unit.Angle(p.Psi))
		if az.Case == azint.Hidden {
			continue
		}
		v.nodes = append(v.nodes, node{w[k] * p.Area, r, az})
	}
	return v, nil
}

// light integrates I·mu over the visible surface of v at wavelength wl.
func (s *Star) light(v *view, wl float64) (float64, []ldstore.FitQualityWarning, error) {
	if s.store == nil {
		return 0, nil, ErrNoStore
	}
	var sum float64
	var clamped int
	warn := map[ldstore.FitQualityWarning]bool{}
	for _, n := range v.nodes {
		r := n.ring
		if r.Err != nil {
			return 0, nil, r.Err
		}
		set, ws, err := r.Cell.Set(wl)
		if err != nil {
			return 0, nil, err
		}
		for _, w := range ws {
			warn[w] = true
		}
		set, neg := set.Clamp()
		if neg {
			clamped++
			warn[ldstore.FitQualityWarning{
				Teff:       r.Teff,
				LogG:       r.LogG,
				Wavelength: wl,
				Kind:       ldstore.Negative,
			}] = true
		}
		sum += n.w * azint.Integrate(n.az, set.MulMu())
	}
	if clamped > 0 {
		logger().Warn("clamped fit", "wavelength", wl, "nodes", clamped)
	}
	req := s.rot.Req * astro.Rsun
	return sum * req * req, sortWarnings(warn), nil
}

func sortWarnings(m map[ldstore.FitQualityWarning]bool) []ldstore.FitQualityWarning {
	if len(m) == 0 {
		return nil
	}
	w := make([]ldstore.FitQualityWarning, 0, len(m))
	for k := range m {
		w = append(w, k)
	}
	slices.SortFunc(w, func(a, b ldstore.FitQualityWarning) int {
		return cmp.Or(
			cmp.Compare(a.Teff, b.Teff),
			cmp.Compare(a.LogG, b.LogG),
			cmp.Compare(a.Wavelength, b.Wavelength),
			cmp.Compare(a.Kind, b.Kind),
		)
	})
	return w
}

// ComputeFlux computes the light of the star at inclination inc and
// wavelength wl in nm.  Inclinations in (π/2, π] are equivalent to their
// supplements.  The error is also recorded in the result.
//
// Geometry and temperature errors concern the whole star.  A
// *ldstore.GridBoundsError concerns only this wavelength.
func (s *Star) ComputeFlux(m *Memo, inc unit.Angle, wl float64) (FluxResult, error) {
	res := FluxResult{Inclination: inc, Wavelength: wl}
	v, err := s.view(m, inc)
	if err == nil {
		res.Light, res.Warnings, err = s.light(v, wl)
	}
	res.Err = err
	return res, err
}

// Spectrum is the light of a star at one inclination over a sequence of
// wavelengths, computed lazily.
type Spectrum struct {
	s   *Star
	m   *Memo
	inc unit.Angle
	wls []float64
}

// Spectrum returns the spectrum at inclination inc over wavelengths wls in
// nm.  Memo m is used and filled as the spectrum is iterated.
func (s *Star) Spectrum(m *Memo, inc unit.Angle, wls []float64) *Spectrum {
	return &Spectrum{s, m, inc, wls}
}

// All returns a sequence of results, one per wavelength.  The sequence may
// be iterated any number of times.
//
// A wavelength outside the fit grid, or a ring outside it, fails only that
// wavelength; iteration continues.  Any other error is yielded once, as the
// result for the first wavelength, and ends the sequence.
func (sp *Spectrum) All() iter.Seq[FluxResult] {
	return func(yield func(FluxResult) bool) {
		if len(sp.wls) == 0 {
			return
		}
		v, err := sp.s.view(sp.m, sp.inc)
		if err != nil {
			yield(FluxResult{Inclination: sp.inc, Wavelength: sp.wls[0], Err: err})
			return
		}
		for _, wl := range sp.wls {
			r := FluxResult{Inclination: sp.inc, Wavelength: wl}
			r.Light, r.Warnings, r.Err = sp.s.light(v, wl)
			var be *ldstore.GridBoundsError
			if !yield(r) || r.Err != nil && !errors.As(r.Err, &be) {
				return
			}
		}
	}
}

// Sweep computes spectra at each of incs over wls using up to workers
// goroutines, each with its own Memo.  Results are in the order of incs.
// A spectrum ending in a fatal error is shorter than wls; see
// Spectrum.All.
func (s *Star) Sweep(incs []unit.Angle, wls []float64, workers int) [][]FluxResult {
	out := make([][]FluxResult, len(incs))
	workers = max(1, min(workers, len(incs)))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := s.NewMemo()
			for k := range jobs {
				logger().Debug("spectrum", "inclination", incs[k].Deg(),
					"wavelengths", len(wls))
				out[k] = slices.Collect(s.Spectrum(m, incs[k], wls).All())
			}
		}()
	}
	for k := range incs {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	return out
}

// Request is a complete description of an observation.
type Request struct {
	Rotation     RotationState
	Inclinations []unit.Angle
	Wavelengths  []float64 // nm
}

// Observe builds the star described by req and sweeps it.  The error is
// for the star as a whole; per point errors are in the results.
func Observe(req Request, store *ldstore.Store, workers int, opts ...Option) ([][]FluxResult, error) {
	s, err := New(req.Rotation, store, opts...)
	if err != nil {
		return nil, err
	}
	return s.Sweep(req.Inclinations, req.Wavelengths, workers), nil
}

// Bolometric integrates Light over frequency for results ordered by
// wavelength, skipping failed points.
func Bolometric(results []FluxResult) float64 {
	light := make([]float64, len(results))
	wl := make([]float64, len(results))
	for k, r := range results {
		light[k], wl[k] = r.Light, r.Wavelength
		if r.Err != nil {
			light[k] = math.NaN()
		}
	}
	return astro.Bolometric(light, wl)
}

// Filter returns the light of results seen through passband p, dimmed by
// av magnitudes of extinction in V for the extinction curve with ratio rv.
// The result is per Hz at the mean wavelength of the passband.  Failed
// points within the passband make the result NaN.
func Filter(results []FluxResult, p *astro.Passband, av, rv float64) (float64, error) {
	light := make([]float64, len(results))
	wl := make([]float64, len(results))
	var alam []float64
	if av != 0 {
		alam = make([]float64, len(results))
	}
	for k, r := range results {
		light[k], wl[k] = r.Light, r.Wavelength
		if r.Err != nil {
			light[k] = math.NaN()
		}
		if alam != nil && p.At(r.Wavelength) > 0 {
			a, err := astro.Alam(r.Wavelength, rv)
			if err != nil {
				return 0, err
			}
			alam[k] = av * a
		}
	}
	return astro.PerHz(p.Filter(light, wl, alam), p.Mean()), nil
}
