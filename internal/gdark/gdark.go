// Public domain.

// Package gdark computes the local effective temperature over the surface
// of a rotating star with the gravity darkening model of Espinosa Lara and
// Rieutord (2011), "Gravity darkening in rotating stars", A&A 533, A43.
//
// In that model the flux is antiparallel to effective gravity and
//
//   F = (L/4πGM) · (tan²ϑ/tan²θ) · g
//
// where ϑ solves
//
//   cos ϑ + ln tan(ϑ/2) = ⅓ omega² r³ cos³θ + cos θ + ln tan(θ/2).
//
// Quantities here are dimensionless in the units of package roche.
package gdark

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/iterate"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/quad"
	"github.com/pars-astro/pars/internal/roche"
)

// TemperatureSolveError reports failure to find a temperature.
type TemperatureSolveError struct {
	Op         string // "ratio", "gravity", or "normalize"
	Theta      float64
	Residual   float64
	Iterations int
}

func (e *TemperatureSolveError) Error() string {
	switch e.Op {
	case "gravity":
		return fmt.Sprintf("gdark: gravity %g out of domain at θ=%g",
			e.Residual, e.Theta)
	case "normalize":
		return fmt.Sprintf("gdark: flux normalization failed, residual %g",
			e.Residual)
	}
	return fmt.Sprintf("gdark: no convergence at θ=%g after %d iterations, residual %g",
		e.Theta, e.Iterations, e.Residual)
}

// Config bounds the Newton iteration.
type Config struct {
	MaxIter int
	Tol     float64 // relative step size at convergence
}

// DefaultConfig is used by callers with no reason to choose otherwise.
var DefaultConfig = Config{MaxIter: 50, Tol: 1e-13}

const edge = 1e-9

// Ratio returns tan²ϑ/tan²θ, the ratio of flux to gravity relative to the
// non-rotating value, at colatitude theta on a surface of radius r.
func Ratio(omega, r, theta float64, c Config) (float64, error) {
	if omega == 0 {
		return 1, nil
	}
	if theta > math.Pi/2 {
		theta = math.Pi - theta
	}
	o2r3 := omega * omega * r * r * r
	switch {
	case theta < edge:
		return math.Exp(2. / 3 * o2r3), nil
	case math.Pi/2-theta < edge:
		return math.Pow(1-omega*omega, -2./3), nil
	}
	sθ, cθ := math.Sincos(theta)
	rhs := elr(theta) + o2r3*cθ*cθ*cθ/3
	// residual at the limit of float64.  elr is exact to relative eps
	// only where the series is summed; elsewhere its terms are of order 1.
	fTol := 4 * eps * math.Abs(rhs)
	if cθ >= .1 {
		fTol = 4 * eps * math.Max(1, math.Abs(rhs))
	}
	ratio := func(v float64) float64 {
		sv, cv := math.Sincos(v)
		t := sv * cθ / (cv * sθ)
		return t * t
	}
	v := theta
	last := math.Inf(1)
	for it := 1; it <= c.MaxIter; it++ {
		sv, cv := math.Sincos(v)
		f := elr(v) - rhs
		if math.Abs(f) <= fTol {
			return ratio(v), nil
		}
		d := f * sv / (cv * cv)
		v -= d
		ad := math.Abs(d)
		if ad <= c.Tol*math.Min(v, math.Pi/2-v) || ad <= 4*eps*v ||
			ad < 1e-10 && ad >= last { // steps no longer shrinking
			return ratio(v), nil
		}
		last = ad
	}
	return 0, &TemperatureSolveError{
		Op:         "ratio",
		Theta:      theta,
		Residual:   elr(v) - rhs,
		Iterations: c.MaxIter,
	}
}

const eps = 0x1p-52

// elr returns cos x + ln tan(x/2) for x in (0, π/2].  Near the equator the
// two terms cancel to -cos³x/3 and the odd series of s - artanh s is
// summed instead.
func elr(x float64) float64 {
	s := math.Cos(x)
	if s >= .1 {
		return s + math.Log(math.Tan(x/2))
	}
	s2 := s * s
	p := s * s2
	sum := 0.
	for k := 3.; ; k += 2 {
		t := p / k
		sum += t
		if t <= 1e-17*sum {
			break
		}
		p *= s2
	}
	return -sum
}

// Norm is the flux normalization of one star.  It multiplies Ratio·G so
// that flux integrated over the surface equals the luminosity.
type Norm struct {
	Omega float64
	Kappa float64
}

// Normalize integrates Ratio·G over the surface of s and returns the
// constant that makes the integral 4π.
func Normalize(s *roche.Surface, rule quad.Rule, c Config) (Norm, error) {
	var err error
	j := 4 * math.Pi * rule.Integrate(func(theta float64) float64 {
		if err != nil {
			return 0
		}
		p, pErr := s.Point(theta)
		if pErr != nil {
			err = pErr
			return 0
		}
		f, fErr := Flux(p, Norm{s.Omega(), 1}, c)
		if fErr != nil {
			err = fErr
			return 0
		}
		return f * p.Area
	}, 0, math.Pi/2)
	if err != nil {
		return Norm{}, err
	}
	res := func(k float64) float64 { return k*j/(4*math.Pi) - 1 }
	const lo, hi = .1, 10.
	if !(res(lo) < 0 && res(hi) > 0) {
		return Norm{}, &TemperatureSolveError{Op: "normalize", Residual: res(1)}
	}
	k := iterate.BinaryRoot(res, lo, hi)
	if r := res(k); math.Abs(r) > 1e-9 {
		return Norm{}, &TemperatureSolveError{Op: "normalize", Residual: r}
	}
	return Norm{s.Omega(), k}, nil
}

// Flux returns the normalized local flux at p, in units of L/(4π Req²).
func Flux(p roche.Point, n Norm, c Config) (float64, error) {
	if !(p.G > 0) || math.IsInf(p.G, 1) {
		return 0, &TemperatureSolveError{Op: "gravity", Theta: p.Theta,
			Residual: p.G}
	}
	q, err := Ratio(n.Omega, p.R, p.Theta, c)
	if err != nil {
		return 0, err
	}
	return n.Kappa * q * p.G, nil
}

// Teff returns the effective temperature at p in K for a star of
// temperature scale tau, as returned by astro.Tau.
func Teff(p roche.Point, n Norm, tau float64, c Config) (float64, error) {
	f, err := Flux(p, n, c)
	if err != nil {
		return 0, err
	}
	return tau * math.Sqrt(math.Sqrt(f)), nil
}

// LogG returns log10 of surface gravity in cgs at p for a star of mass m
// in solar masses and equatorial radius req in solar radii.
func LogG(p roche.Point, m, req float64) float64 {
	return astro.LogGamma(m, req) + math.Log10(p.G)
}
