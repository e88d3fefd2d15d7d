// Public domain.

// Package azint integrates specific intensity around a ring of constant
// colatitude on the surface of a star, in closed form.
//
// For an observer at inclination i and a surface normal tilted by psi from
// the rotation axis, the cosine of the angle between normal and line of
// sight at azimuth φ is
//
//   mu(φ) = A cos φ + B,   A = sin i sin psi,   B = cos i cos psi.
//
// The ring is visible where mu > 0.  Intensity is a piecewise polynomial
// in mu, and integrals of powers of mu over φ follow a recurrence.
package azint

import (
	"math"

	"github.com/soniakeys/unit"

	"github.com/pars-astro/pars/internal/ldfit"
)

// Visibility of a ring.
type Visibility int

const (
	Hidden Visibility = iota
	Partial
	Visible
)

func (v Visibility) String() string {
	switch v {
	case Hidden:
		return "hidden"
	case Partial:
		return "partial"
	case Visible:
		return "visible"
	}
	return "unknown"
}

// Ring holds the azimuthal geometry of one ring for one inclination.
// The ring is visible for φ in [-PhiB, PhiB].
type Ring struct {
	Case Visibility
	A, B float64
	PhiB float64
}

// Classify computes ring geometry for inclination inc and normal tilt psi.
func Classify(inc, psi unit.Angle) Ring {
	si, ci := inc.Sincos()
	sp, cp := psi.Sincos()
	r := Ring{A: si * sp, B: ci * cp}
	switch {
	case r.B-r.A >= 0:
		r.Case, r.PhiB = Visible, math.Pi
	case r.B+r.A <= 0:
		r.Case = Hidden
	default:
		r.Case, r.PhiB = Partial, math.Acos(-r.B/r.A)
	}
	return r
}

// Mu returns mu at azimuth phi.
func (r Ring) Mu(phi float64) float64 { return r.A*math.Cos(phi) + r.B }

// Powers returns J_0..J_n where J_k = ∫₀^phi mu^k dφ.
func Powers(r Ring, phi float64, n int) []float64 {
	j := make([]float64, n+1)
	s, c := math.Sincos(phi)
	a, b := r.A, r.B
	mu := a*c + b
	j[0] = phi
	if n == 0 {
		return j
	}
	j[1] = a*s + b*phi
	// A sinφ mu^(k-1)
	t := a * s * mu
	d := a*a - b*b
	for k := 2; k <= n; k++ {
		fk := float64(k)
		j[k] = (t + (2*fk-1)*b*j[k-1] + (fk-1)*d*j[k-2]) / fk
		t *= mu
	}
	return j
}

// Integrate returns ∫ P(mu(φ)) dφ over the visible part of the ring,
// where P is the piecewise polynomial s.
func Integrate(r Ring, s ldfit.Set) float64 {
	if r.Case == Hidden {
		return 0
	}
	if r.A == 0 {
		return 2 * math.Pi * s.Value(r.B)
	}
	// mu decreases from muMax at φ = 0 to muMin at φ = PhiB.
	muMax := r.A + r.B
	muMin := r.Mu(r.PhiB)
	if r.Case == Partial {
		muMin = 0
	}
	n := s.Degree()
	phi := func(mu float64) float64 {
		switch {
		case mu >= muMax:
			return 0
		case mu <= muMin:
			return r.PhiB
		}
		return math.Acos(math.Max(-1, math.Min(1, (mu-r.B)/r.A)))
	}
	var sum float64
	for i, c := range s.Coef {
		lo, hi := s.Interval(i)
		lo, hi = math.Max(lo, muMin), math.Min(hi, muMax)
		if !(hi > lo) {
			continue
		}
		j0 := Powers(r, phi(hi), n)
		j1 := Powers(r, phi(lo), n)
		for k, ck := range c {
			sum += ck * (j1[k] - j0[k])
		}
	}
	return 2 * sum
}
