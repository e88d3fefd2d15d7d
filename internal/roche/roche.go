// Public domain.

// Package roche models the surface of a rotating star as a Roche
// equipotential, the surface of a point mass in solid body rotation.
//
// Lengths are in units of the equatorial radius Req and gravity is in units
// of GM/Req².  Omega is the rotation rate as a fraction of the critical
// (breakup) rate, Ω/sqrt(GM/Req³).  In these units the surface is
//
//   (w-1)/r + r² sin²θ = w,   w = 1 + 2/omega²
//
// a cubic in r for each colatitude θ.
package roche

import (
	"fmt"
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/iterate"
)

// GeometryDomainError reports a rotation rate at or above breakup, or a
// colatitude or inclination out of range.
type GeometryDomainError struct {
	Param string // "omega", "theta", or "inclination"
	Value float64
}

func (e *GeometryDomainError) Error() string {
	switch e.Param {
	case "omega":
		return fmt.Sprintf("roche: omega %g outside [0, 1)", e.Value)
	case "inclination":
		return fmt.Sprintf("roche: inclination %g outside [0, π]", e.Value)
	}
	return fmt.Sprintf("roche: %s %g outside [0, π/2]", e.Param, e.Value)
}

// Surface is the shape of a star rotating at a given rate.  It is
// immutable and safe for concurrent use.
type Surface struct {
	omega float64
	w     float64 // 1 + 2/omega², +Inf for a sphere
	f     float64 // flatness, Req/Rpole
}

// New returns the surface for rotation rate omega.
func New(omega float64) (*Surface, error) {
	if !(omega >= 0 && omega < 1) {
		return nil, &GeometryDomainError{"omega", omega}
	}
	s := &Surface{omega: omega, w: math.Inf(1), f: 1 + omega*omega/2}
	if omega > 0 {
		s.w = 1 + 2/(omega*omega)
	}
	return s, nil
}

// Omega returns the rotation rate as a fraction of critical.
func (s *Surface) Omega() float64 { return s.omega }

// Flatness returns Req/Rpole.
func (s *Surface) Flatness() float64 { return s.f }

// PolarRadius returns Rpole/Req.
func (s *Surface) PolarRadius() float64 { return 1 / s.f }

// colatitudes closer than this to the pole or equator take the limiting
// expressions.
const edge = 1e-9

// Point is the local geometry of the surface at one colatitude.
type Point struct {
	Theta   float64 // colatitude, radians
	R       float64 // radius
	G       float64 // magnitude of effective gravity
	Psi     float64 // angle of outward normal from the rotation axis
	CosBeta float64 // cosine of angle between normal and radial direction
	Area    float64 // surface element per dθ dφ

	// Effective gravity vector in the meridional plane.  X is along the
	// cylindrical radius, Z along the rotation axis.  Y is zero.
	Gravity coord.Cart
}

// Point computes surface geometry at colatitude theta in [0, π/2].
func (s *Surface) Point(theta float64) (Point, error) {
	if !(theta >= 0 && theta <= math.Pi/2) {
		return Point{}, &GeometryDomainError{"theta", theta}
	}
	switch {
	case s.omega == 0:
		sin, cos := math.Sincos(theta)
		return Point{
			Theta:   theta,
			R:       1,
			G:       1,
			Psi:     theta,
			CosBeta: 1,
			Area:    sin,
			Gravity: coord.Cart{X: -sin, Z: -cos},
		}, nil
	case theta < edge:
		g := s.f * s.f
		return Point{
			Theta:   theta,
			R:       1 / s.f,
			G:       g,
			CosBeta: 1,
			Gravity: coord.Cart{Z: -g},
		}, nil
	case math.Pi/2-theta < edge:
		g := 1 - s.omega*s.omega
		return Point{
			Theta:   theta,
			R:       1,
			G:       g,
			Psi:     math.Pi / 2,
			CosBeta: 1,
			Area:    1,
			Gravity: coord.Cart{X: -g},
		}, nil
	}
	r, err := s.radius(math.Sin(theta))
	if err != nil {
		return Point{}, err
	}
	return s.point(theta, r), nil
}

// Radius returns the surface radius at colatitude theta in [0, π/2].
func (s *Surface) Radius(theta float64) (float64, error) {
	p, err := s.Point(theta)
	return p.R, err
}

// radius solves the surface cubic for sin θ away from the pole.
func (s *Surface) radius(sin float64) (float64, error) {
	roots, err := cubicRoots(s.w, sin)
	if err != nil {
		return 0, err
	}
	return selectRoot(roots, 1/s.f, 1)
}

// cubicRoots returns the three real roots of sin²θ r³ - w r + (w-1) = 0.
//
// With R = 2 sqrt(w/3)/sinθ and a = ⅓ asin(k),
// k = (3√3/2) (w-1) sinθ / w^(3/2), the roots are
// R sin a, R sin(π/3 - a) and -R sin(π/3 + a).  The first is the
// physical one; writing it as a sine of a small angle avoids the
// cancellation of the textbook cosine form near the pole.
func cubicRoots(w, sin float64) (roots [3]float64, err error) {
	k := 1.5 * math.Sqrt(3) * (w - 1) * sin / (w * math.Sqrt(w))
	if !(k >= 0 && k <= 1) {
		return roots, fmt.Errorf("roche: no three real roots, k = %g", k)
	}
	rr := 2 * math.Sqrt(w/3) / sin
	a := math.Asin(k) / 3
	roots[0] = rr * math.Sin(a)
	roots[1] = rr * math.Sin(math.Pi/3-a)
	roots[2] = -rr * math.Sin(math.Pi/3+a)
	return
}

// selectRoot returns the unique root in [lo, hi], allowing for rounding at
// the ends of the interval.  The result is clamped into [lo, hi].
func selectRoot(roots [3]float64, lo, hi float64) (float64, error) {
	tol := 1e-12 * hi
	n := 0
	var r float64
	for _, x := range roots {
		if x >= lo-tol && x <= hi+tol {
			r = x
			n++
		}
	}
	if n != 1 {
		return 0, fmt.Errorf("roche: %d roots %v in [%g, %g]", n, roots, lo, hi)
	}
	return math.Max(lo, math.Min(hi, r)), nil
}

func (s *Surface) point(theta, r float64) Point {
	sin, cos := math.Sincos(theta)
	o2 := s.omega * s.omega
	ir2 := 1 / (r * r)
	p := Point{
		Theta:   theta,
		R:       r,
		Gravity: coord.Cart{X: -sin*ir2 + o2*r*sin, Z: -cos * ir2},
	}
	p.G = math.Sqrt(p.Gravity.Square())
	// radial component of gravity
	gr := -ir2 + o2*r*sin*sin
	p.CosBeta = -gr / p.G
	p.Psi = math.Atan2(-p.Gravity.X, -p.Gravity.Z)
	p.Area = r * r * sin / p.CosBeta
	return p
}

// Mirror returns the point at colatitude π - θ, in the southern hemisphere.
func Mirror(p Point) Point {
	p.Theta = math.Pi - p.Theta
	p.Psi = math.Pi - p.Psi
	p.Gravity.Z = -p.Gravity.Z
	return p
}

// PsiInverse returns the colatitude in [0, π/2] where the surface normal is
// tilted by psi from the rotation axis.  Psi increases monotonically from
// pole to equator.
func (s *Surface) PsiInverse(psi float64) (float64, error) {
	switch {
	case psi <= 0:
		return 0, nil
	case psi >= math.Pi/2:
		return math.Pi / 2, nil
	case s.omega == 0:
		return psi, nil
	}
	var err error
	theta := iterate.BinaryRoot(func(theta float64) float64 {
		p, pErr := s.Point(theta)
		if pErr != nil {
			err = pErr
			return 0
		}
		return p.Psi - psi
	}, 0, math.Pi/2)
	return theta, err
}
