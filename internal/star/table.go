// Public domain.

package star

import (
	"fmt"
	"math"

	"github.com/soniakeys/unit"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/gdark"
	"github.com/pars-astro/pars/internal/quad"
)

// Row describes the surface at one colatitude.
type Row struct {
	Theta unit.Angle
	R     float64 // radius, Req
	G     float64 // effective gravity, GM/Req²
	Psi   unit.Angle
	Teff  float64 // K
	LogG  float64 // cgs
}

// Table returns the surface at n colatitudes evenly spaced from pole to
// equator.
func (s *Star) Table(n int) ([]Row, error) {
	if n < 2 {
		return nil, fmt.Errorf("star: table needs at least 2 rows, got %d", n)
	}
	m := s.NewMemo()
	rows := make([]Row, n)
	for k := range rows {
		theta := math.Min(math.Pi/2, float64(k)*math.Pi/2/float64(n-1))
		r, err := m.Ring(theta)
		if err != nil {
			return nil, err
		}
		p := r.Point
		rows[k] = Row{
			Theta: unit.Angle(theta),
			R:     p.R,
			G:     p.G,
			Psi:   unit.Angle(p.Psi),
			Teff:  r.Teff,
			LogG:  r.LogG,
		}
	}
	return rows, nil
}

// Luminosity integrates σT⁴ over the whole surface and returns it in erg/s.
// It should equal the luminosity of the rotation state to within the
// accuracy of the rule.  The integral is taken with twice the panels of
// rule, and errEst is its difference from the integral with rule.
func (s *Star) Luminosity(rule quad.Rule) (l, errEst float64, err error) {
	if err = rule.Valid(); err != nil {
		return 0, 0, err
	}
	sum, e := rule.Estimate(func(theta float64) float64 {
		if err != nil {
			return 0
		}
		p, pErr := s.surf.Point(theta)
		if pErr != nil {
			err = pErr
			return 0
		}
		t, tErr := gdark.Teff(p, s.norm, s.tau, s.solver)
		if tErr != nil {
			err = tErr
			return 0
		}
		t2 := t * t
		return astro.Sigma * t2 * t2 * p.Area
	}, 0, math.Pi/2)
	if err != nil {
		return 0, 0, err
	}
	req := s.rot.Req * astro.Rsun
	f := 4 * math.Pi * req * req
	return f * sum, f * e, nil
}
