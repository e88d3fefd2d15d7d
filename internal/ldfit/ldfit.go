// Public domain.

// Package ldfit represents specific intensity as a function of mu, the
// cosine of the angle from the surface normal, as a piecewise polynomial.
//
// The range of mu, [0, 1], is split into intervals.  On each interval the
// intensity is a polynomial in mu.  The model is linear in its
// coefficients, so fits are ordinary least squares.
package ldfit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/iterate"
)

// MuKurucz are the values of mu at which Castelli and Kurucz (2004)
// tabulate intensities, ascending.
var MuKurucz = []float64{0.01, 0.025, 0.05, 0.075, 0.1, 0.125, 0.15, 0.2,
	0.25, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// Default form of fit:  quartics on [0, .1], [.1, .4], [.4, 1].
var (
	DefaultBounds = []float64{.1, .4}
	DefaultDegree = 4
)

// Set is a piecewise polynomial in mu on [0, 1].
//
// Bounds are the interior boundaries, ascending.  Coef has one row per
// interval, len(Bounds)+1 rows, each with the constant term first.
type Set struct {
	Bounds []float64
	Coef   [][]float64
}

// Intervals returns the number of intervals.
func (s Set) Intervals() int { return len(s.Bounds) + 1 }

// Interval returns the ends of interval i.
func (s Set) Interval(i int) (lo, hi float64) {
	lo, hi = 0, 1
	if i > 0 {
		lo = s.Bounds[i-1]
	}
	if i < len(s.Bounds) {
		hi = s.Bounds[i]
	}
	return
}

// index returns the interval containing mu.  A boundary value belongs to
// the interval above it.
func (s Set) index(mu float64) int {
	return sort.Search(len(s.Bounds), func(i int) bool { return s.Bounds[i] > mu })
}

// Value returns the polynomial at mu, without clamping.
func (s Set) Value(mu float64) float64 {
	return base.Horner(mu, s.Coef[s.index(mu)]...)
}

// Eval returns intensity at mu.  Negative values of the polynomial are
// clamped to zero and reported.
func (s Set) Eval(mu float64) (i float64, clamped bool) {
	if i = s.Value(mu); i < 0 {
		return 0, true
	}
	return i, false
}

// MulMu returns the set representing mu·P(mu).
func (s Set) MulMu() Set {
	m := Set{Bounds: s.Bounds, Coef: make([][]float64, len(s.Coef))}
	for i, c := range s.Coef {
		m.Coef[i] = append([]float64{0}, c...)
	}
	return m
}

// Degree returns the largest number of coefficients in any interval, less
// one.
func (s Set) Degree() int {
	n := 0
	for _, c := range s.Coef {
		if len(c) > n {
			n = len(c)
		}
	}
	return n - 1
}

// samples per interval when scanning for sign changes.
const scan = 64

// Clamp returns the set representing max(P, 0).  Intervals where P changes
// sign are split at the zero crossings and the negative pieces replaced
// by zero polynomials.  The result is exact where Eval clamps pointwise.
// Clamp reports whether P went negative anywhere.
func (s Set) Clamp() (Set, bool) {
	var c Set
	neg := false
	for i, coef := range s.Coef {
		lo, hi := s.Interval(i)
		p := func(mu float64) float64 { return base.Horner(mu, coef...) }
		// piece ends within [lo, hi]
		ends := []float64{lo}
		x0, y0 := lo, p(lo)
		for k := 1; k <= scan; k++ {
			x1 := lo + (hi-lo)*float64(k)/scan
			y1 := p(x1)
			if (y0 < 0) != (y1 < 0) {
				z := iterate.BinaryRoot(p, x0, x1)
				if z-ends[len(ends)-1] > 1e-12 && hi-z > 1e-12 {
					ends = append(ends, z)
				}
			}
			x0, y0 = x1, y1
		}
		ends = append(ends, hi)
		for k := 1; k < len(ends); k++ {
			if k > 1 {
				c.Bounds = append(c.Bounds, ends[k-1])
			}
			if p((ends[k-1]+ends[k])/2) < 0 {
				neg = true
				c.Coef = append(c.Coef, []float64{0})
			} else {
				c.Coef = append(c.Coef, coef)
			}
		}
		if i < len(s.Bounds) {
			c.Bounds = append(c.Bounds, hi)
		}
	}
	if !neg {
		return s, false
	}
	return c, true
}

// Quality summarizes a fit against the intensities it was fit to, relative
// to the given intensity at mu = 1.
type Quality struct {
	I0        float64 // fitted I(0) / I(1)
	MinI      float64 // smallest fitted I on the check grid / I(1)
	MinStep   float64 // smallest increase in I across one grid step / I(1)
	MinStepMu float64
	MaxDev    float64 // largest |fit - given| / I(1)
	MaxDevMu  float64
}

// CheckStep is the spacing of the mu grid used by Check.
const CheckStep = .001

// Check evaluates the quality of s as a fit to intensities i at mu.
// The last value of mu should be 1.
func (s Set) Check(mu, i []float64) Quality {
	scale := 1.
	if n := len(i); n > 0 && i[n-1] != 0 {
		scale = i[n-1]
	}
	q := Quality{
		I0:      s.Value(0) / scale,
		MinI:    math.Inf(1),
		MinStep: math.Inf(1),
	}
	n := int(math.Round(1 / CheckStep))
	last := s.Value(0)
	q.MinI = last / scale
	for k := 1; k < n; k++ {
		x := float64(k) * CheckStep
		v := s.Value(x)
		if d := (v - last) / scale; d < q.MinStep {
			q.MinStep, q.MinStepMu = d, x-CheckStep
		}
		if v/scale < q.MinI {
			q.MinI = v / scale
		}
		last = v
	}
	for k, x := range mu {
		if d := math.Abs(s.Value(x)-i[k]) / scale; d > q.MaxDev {
			q.MaxDev, q.MaxDevMu = d, x
		}
	}
	return q
}

// Negative reports whether the fit goes below zero.
func (q Quality) Negative() bool { return q.MinI < 0 || q.I0 < 0 }

// NonMonotonic reports whether the fit decreases with mu anywhere.
func (q Quality) NonMonotonic() bool { return q.MinStep < 0 }

// Fit fits intensities i given at ascending mu with a piecewise polynomial
// of the given degree on the intervals defined by bounds.  A sample at a
// boundary is used by the intervals on both sides.
func Fit(bounds []float64, degree int, mu, i []float64) (Set, error) {
	if len(mu) != len(i) {
		return Set{}, fmt.Errorf("ldfit: %d mu values, %d intensities",
			len(mu), len(i))
	}
	if !sort.Float64sAreSorted(bounds) {
		return Set{}, errors.New("ldfit: bounds not ascending")
	}
	s := Set{Bounds: bounds, Coef: make([][]float64, len(bounds)+1)}
	for k := range s.Coef {
		lo, hi := s.Interval(k)
		var a [][]float64
		var b []float64
		for j, x := range mu {
			if x < lo || x > hi {
				continue
			}
			row := make([]float64, degree+1)
			p := 1.
			for c := range row {
				row[c] = p
				p *= x
			}
			a = append(a, row)
			b = append(b, i[j])
		}
		if len(a) <= degree {
			return Set{}, fmt.Errorf("ldfit: %d samples on [%g, %g] for degree %d",
				len(a), lo, hi, degree)
		}
		c, err := leastSquares(a, b)
		if err != nil {
			return Set{}, fmt.Errorf("ldfit: interval [%g, %g]: %w", lo, hi, err)
		}
		s.Coef[k] = c
	}
	return s, nil
}

// leastSquares solves the overdetermined system a x = b by Householder QR.
// a and b are overwritten.
func leastSquares(a [][]float64, b []float64) ([]float64, error) {
	m, n := len(a), len(a[0])
	for k := 0; k < n; k++ {
		var norm float64
		for i := k; i < m; i++ {
			norm = math.Hypot(norm, a[i][k])
		}
		if norm == 0 {
			return nil, errors.New("rank deficient")
		}
		if a[k][k] > 0 {
			norm = -norm
		}
		// v = column - norm·e_k, stored in place
		a[k][k] -= norm
		vv := 0.
		for i := k; i < m; i++ {
			vv += a[i][k] * a[i][k]
		}
		for j := k + 1; j < n; j++ {
			d := 0.
			for i := k; i < m; i++ {
				d += a[i][k] * a[i][j]
			}
			f := 2 * d / vv
			for i := k; i < m; i++ {
				a[i][j] -= f * a[i][k]
			}
		}
		d := 0.
		for i := k; i < m; i++ {
			d += a[i][k] * b[i]
		}
		f := 2 * d / vv
		for i := k; i < m; i++ {
			b[i] -= f * a[i][k]
		}
		a[k][k] = norm
	}
	x := make([]float64, n)
	for k := n - 1; k >= 0; k-- {
		s := b[k]
		for j := k + 1; j < n; j++ {
			s -= a[k][j] * x[j]
		}
		x[k] = s / a[k][k]
	}
	return x, nil
}
