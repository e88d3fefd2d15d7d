// Public domain.

// Package ldstore holds limb darkening fits on a grid of effective
// temperature, log g, and wavelength, and interpolates between them.
// The grid is computed once by calclimbdark and read by pars.
package ldstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/pars-astro/pars/internal/ldfit"
)

// Fn is the default file name of a fit grid.
const Fn = "limbdark.gob"

// format identifies the gob stream written by WriteFile.
const format = "pars limbdark 1"

// Grid holds fit coefficients for every node of a (Teff, log g,
// wavelength) grid.  All fits share the same mu bounds and degree.
//
// Coef is a flat representation of the grid, indexed by Mx.  Present marks
// the (Teff, log g) pairs that have fits; atmosphere grids are not
// rectangular at low gravity and high temperature.  Flags, when not
// empty, hold the quality of each node as found by the fitter.  When they
// are empty New checks the fits itself.
type Grid struct {
	Teff, LogG, Wavelength []float64
	Bounds                 []float64
	Degree                 int
	Coef                   []float64
	Present                []bool
	Flags                  []Kind
	Created                time.Time
	Source                 string
}

// NewGrid allocates a grid with no fits present.
func NewGrid(teff, logg, wl, bounds []float64, degree int) *Grid {
	g := &Grid{
		Teff:       teff,
		LogG:       logg,
		Wavelength: wl,
		Bounds:     bounds,
		Degree:     degree,
		Created:    time.Now(),
	}
	g.Coef = make([]float64, len(teff)*len(logg)*len(wl)*g.NCoef())
	g.Present = make([]bool, len(teff)*len(logg))
	g.Flags = make([]Kind, len(teff)*len(logg)*len(wl))
	return g
}

// NCoef returns the number of coefficients stored per node.
func (g *Grid) NCoef() int { return (len(g.Bounds) + 1) * (g.Degree + 1) }

// Nx computes the index of a node.
func (g *Grid) Nx(it, ig, iw int) int {
	return (it*len(g.LogG)+ig)*len(g.Wavelength) + iw
}

// Mx computes the index of the first coefficient of a node in Coef.
func (g *Grid) Mx(it, ig, iw int) int { return g.Nx(it, ig, iw) * g.NCoef() }

// Put stores a fit at a node and marks the (Teff, log g) pair present.
func (g *Grid) Put(it, ig, iw int, s ldfit.Set, k Kind) error {
	if len(s.Bounds) != len(g.Bounds) {
		return fmt.Errorf("ldstore: fit has %d bounds, grid %d",
			len(s.Bounds), len(g.Bounds))
	}
	for i, b := range s.Bounds {
		if b != g.Bounds[i] {
			return fmt.Errorf("ldstore: fit bound %g, grid %g", b, g.Bounds[i])
		}
	}
	x := g.Mx(it, ig, iw)
	n := g.Degree + 1
	for i, c := range s.Coef {
		if len(c) > n {
			return fmt.Errorf("ldstore: fit degree %d, grid %d", len(c)-1, g.Degree)
		}
		row := g.Coef[x+i*n : x+(i+1)*n]
		copy(row, c)
		for j := len(c); j < n; j++ {
			row[j] = 0
		}
	}
	g.Present[it*len(g.LogG)+ig] = true
	g.Flags[g.Nx(it, ig, iw)] = k
	return nil
}

// At returns the fit at a node.
func (g *Grid) At(it, ig, iw int) ldfit.Set {
	x := g.Mx(it, ig, iw)
	n := g.Degree + 1
	s := ldfit.Set{Bounds: g.Bounds, Coef: make([][]float64, len(g.Bounds)+1)}
	for i := range s.Coef {
		s.Coef[i] = g.Coef[x+i*n : x+(i+1)*n : x+(i+1)*n]
	}
	return s
}

// WriteFile writes a grid with gob encoding.
func WriteFile(fn string, g *Grid) error {
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	enc := gob.NewEncoder(f)
	if err = enc.Encode(format); err == nil {
		err = enc.Encode(g)
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	return err
}

// ReadFile reads a grid written by WriteFile.
func ReadFile(fn string) (*Grid, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	var tag string
	if err = dec.Decode(&tag); err != nil {
		return nil, err
	}
	if tag != format {
		return nil, fmt.Errorf("ldstore: %s: unknown format %q", fn, tag)
	}
	var g Grid
	if err = dec.Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Kind classifies fit quality problems.  Kinds combine as bits.
type Kind uint8

const (
	Negative     Kind = 1 << iota // fitted intensity below zero somewhere
	NonMonotonic                  // fitted intensity decreasing with mu somewhere
)

func (k Kind) String() string {
	switch k {
	case 0:
		return "ok"
	case Negative:
		return "negative"
	case NonMonotonic:
		return "non-monotonic"
	case Negative | NonMonotonic:
		return "negative, non-monotonic"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Quality returns the kind of problems found by a fit check.
func Quality(q ldfit.Quality) (k Kind) {
	if q.Negative() {
		k |= Negative
	}
	if q.NonMonotonic() {
		k |= NonMonotonic
	}
	return
}

// FitQualityWarning reports that an intensity was computed from a fit of
// questionable quality.  It does not stop the computation.
type FitQualityWarning struct {
	Teff, LogG, Wavelength float64
	Kind                   Kind
}

func (w FitQualityWarning) String() string {
	return fmt.Sprintf("%s fit at Teff=%g logg=%g wl=%g",
		w.Kind, w.Teff, w.LogG, w.Wavelength)
}

// GridBoundsError reports a query outside the fit grid.
type GridBoundsError struct {
	Axis     string // "teff", "logg", or "wavelength"
	Value    float64
	Min, Max float64
}

func (e *GridBoundsError) Error() string {
	return fmt.Sprintf("ldstore: %s %g outside grid [%g, %g]",
		e.Axis, e.Value, e.Min, e.Max)
}

// Store answers intensity queries from a grid.  It is immutable and safe
// for concurrent use.
type Store struct {
	g     *Grid
	flags []Kind // per node, indexed like g.Flags
}

// New validates a grid and returns a store for it.
func New(g *Grid) (*Store, error) {
	for _, a := range []struct {
		name string
		v    []float64
	}{{"teff", g.Teff}, {"logg", g.LogG}, {"wavelength", g.Wavelength}} {
		if len(a.v) == 0 {
			return nil, fmt.Errorf("ldstore: empty %s axis", a.name)
		}
		for i := 1; i < len(a.v); i++ {
			if !(a.v[i] > a.v[i-1]) {
				return nil, fmt.Errorf("ldstore: %s axis not ascending at %g",
					a.name, a.v[i])
			}
		}
	}
	for i, b := range g.Bounds {
		if !(b > 0 && b < 1) || i > 0 && !(b > g.Bounds[i-1]) {
			return nil, fmt.Errorf("ldstore: invalid mu bounds %v", g.Bounds)
		}
	}
	if g.Degree < 0 {
		return nil, errors.New("ldstore: negative degree")
	}
	nodes := len(g.Teff) * len(g.LogG) * len(g.Wavelength)
	if len(g.Coef) != nodes*g.NCoef() {
		return nil, fmt.Errorf("ldstore: %d coefficients, want %d",
			len(g.Coef), nodes*g.NCoef())
	}
	if len(g.Present) != len(g.Teff)*len(g.LogG) {
		return nil, fmt.Errorf("ldstore: %d presence flags, want %d",
			len(g.Present), len(g.Teff)*len(g.LogG))
	}
	flags := g.Flags
	if len(flags) == 0 {
		flags = make([]Kind, nodes)
		for it := range g.Teff {
			for ig := range g.LogG {
				if !g.Present[it*len(g.LogG)+ig] {
					continue
				}
				for iw := range g.Wavelength {
					flags[g.Nx(it, ig, iw)] =
						Quality(g.At(it, ig, iw).Check(nil, nil))
				}
			}
		}
	} else if len(flags) != nodes {
		return nil, fmt.Errorf("ldstore: %d quality flags, want %d",
			len(flags), nodes)
	} else {
		flags = slices.Clone(flags)
	}
	return &Store{g, flags}, nil
}

// Grid returns the underlying grid.  It must not be modified.
func (s *Store) Grid() *Grid { return s.g }

// bracket returns i and weight w such that v = (1-w) a[i] + w a[i+1].
// For a single valued axis i is 0 and w is 0.
func bracket(axis string, a []float64, v float64) (int, float64, error) {
	n := len(a)
	if !(v >= a[0] && v <= a[n-1]) {
		return 0, 0, &GridBoundsError{axis, v, a[0], a[n-1]}
	}
	if n == 1 {
		return 0, 0, nil
	}
	i := sort.Search(n, func(k int) bool { return a[k] > v }) - 1
	if i == n-1 {
		i--
	}
	return i, (v - a[i]) / (a[i+1] - a[i]), nil
}

// Cell is the bracket of grid nodes around one (Teff, log g).
type Cell struct {
	s          *Store
	Teff, LogG float64
	it, ig     int
	wt, wg     float64
}

// Locate brackets teff and logg in the grid.  A corner of the bracket with
// no fit is reported as a log g bounds error.
func (s *Store) Locate(teff, logg float64) (Cell, error) {
	g := s.g
	it, wt, err := bracket("teff", g.Teff, teff)
	if err != nil {
		return Cell{}, err
	}
	ig, wg, err := bracket("logg", g.LogG, logg)
	if err != nil {
		return Cell{}, err
	}
	c := Cell{s: s, Teff: teff, LogG: logg, it: it, ig: ig, wt: wt, wg: wg}
	for _, k := range c.corners() {
		if !g.Present[k.it*len(g.LogG)+k.ig] {
			lo, hi := s.loggRange(it, wt)
			return Cell{}, &GridBoundsError{"logg", logg, lo, hi}
		}
	}
	return c, nil
}

// loggRange returns the range of log g with fits at the one or two
// temperatures bracketing a query.
func (s *Store) loggRange(it int, wt float64) (lo, hi float64) {
	g := s.g
	first, last := 0, len(g.LogG)-1
	cols := []int{it}
	if wt > 0 {
		cols = append(cols, it+1)
	}
	for _, t := range cols {
		for first <= last && !g.Present[t*len(g.LogG)+first] {
			first++
		}
		for last >= first && !g.Present[t*len(g.LogG)+last] {
			last--
		}
	}
	if first > last {
		return 0, 0
	}
	return g.LogG[first], g.LogG[last]
}

type corner struct {
	it, ig int
	w      float64
}

// corners returns the (Teff, log g) nodes with non-zero weight.
func (c Cell) corners() []corner {
	k := make([]corner, 0, 4)
	for dt := 0; dt < 2; dt++ {
		wt := 1 - c.wt
		if dt == 1 {
			wt = c.wt
		}
		for dg := 0; dg < 2; dg++ {
			wg := 1 - c.wg
			if dg == 1 {
				wg = c.wg
			}
			if w := wt * wg; w > 0 {
				k = append(k, corner{c.it + dt, c.ig + dg, w})
			}
		}
	}
	return k
}

// Set returns the fit interpolated to the cell's (Teff, log g) and to
// wavelength wl, with warnings for any contributing node of poor quality.
// Coefficients are interpolated; since all nodes share mu bounds this
// equals interpolating the intensities.
func (c Cell) Set(wl float64) (ldfit.Set, []FitQualityWarning, error) {
	g := c.s.g
	iw, ww, err := bracket("wavelength", g.Wavelength, wl)
	if err != nil {
		return ldfit.Set{}, nil, err
	}
	n := g.NCoef()
	sum := make([]float64, n)
	var warn []FitQualityWarning
	for _, k := range c.corners() {
		for dw := 0; dw < 2; dw++ {
			w := k.w * (1 - ww)
			if dw == 1 {
				w = k.w * ww
			}
			if w == 0 {
				continue
			}
			if f := c.s.flags[g.Nx(k.it, k.ig, iw+dw)]; f != 0 {
				warn = append(warn, FitQualityWarning{
					Teff:       g.Teff[k.it],
					LogG:       g.LogG[k.ig],
					Wavelength: g.Wavelength[iw+dw],
					Kind:       f,
				})
			}
			x := g.Mx(k.it, k.ig, iw+dw)
			for j, v := range g.Coef[x : x+n] {
				sum[j] += w * v
			}
		}
	}
	d := g.Degree + 1
	s := ldfit.Set{Bounds: g.Bounds, Coef: make([][]float64, len(g.Bounds)+1)}
	for i := range s.Coef {
		s.Coef[i] = sum[i*d : (i+1)*d : (i+1)*d]
	}
	return s, warn, nil
}

// Intensity returns specific intensity at mu for the given Teff, log g and
// wavelength, in the units of the grid.  A negative interpolated value is
// clamped to zero and reported.
func (s *Store) Intensity(teff, logg, wl, mu float64) (float64, []FitQualityWarning, error) {
	c, err := s.Locate(teff, logg)
	if err != nil {
		return 0, nil, err
	}
	set, warn, err := c.Set(wl)
	if err != nil {
		return 0, nil, err
	}
	i, clamped := set.Eval(mu)
	if clamped {
		warn = append(warn, FitQualityWarning{teff, logg, wl, Negative})
	}
	return i, warn, nil
}
