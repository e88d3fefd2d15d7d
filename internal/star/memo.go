// Public domain.

package star

import (
	"math"

	"github.com/pars-astro/pars/internal/gdark"
	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/roche"
)

// Ring is what is known about one colatitude sample independent of
// wavelength and inclination.
type Ring struct {
	Point roche.Point // at the northern colatitude, in [0, π/2]
	Teff  float64     // K
	LogG  float64     // cgs
	Cell  ldstore.Cell
	Err   error // from locating Teff, log g in the fit grid
}

// Memo caches rings by colatitude.  Rings in the southern hemisphere share
// the entry of their northern mirror image.  A Memo belongs to one Star
// and is not safe for concurrent use.
type Memo struct {
	s     *Star
	rings map[float64]*Ring
}

// NewMemo returns an empty memo for s.
func (s *Star) NewMemo() *Memo {
	return &Memo{s: s, rings: map[float64]*Ring{}}
}

// Len returns the number of rings computed.
func (m *Memo) Len() int { return len(m.rings) }

// Ring returns the ring at colatitude theta in [0, π].  Geometry and
// temperature errors are returned.  A ring outside the fit grid is
// returned with Err set.
func (m *Memo) Ring(theta float64) (*Ring, error) {
	if !(theta >= 0 && theta <= math.Pi) {
		return nil, &roche.GeometryDomainError{Param: "theta", Value: theta}
	}
	if theta > math.Pi/2 {
		theta = math.Pi - theta
	}
	if r, ok := m.rings[theta]; ok {
		return r, nil
	}
	s := m.s
	p, err := s.surf.Point(theta)
	if err != nil {
		return nil, err
	}
	r := &Ring{Point: p, LogG: gdark.LogG(p, s.rot.M, s.rot.Req)}
	if r.Teff, err = gdark.Teff(p, s.norm, s.tau, s.solver); err != nil {
		return nil, err
	}
	if s.store != nil {
		r.Cell, r.Err = s.store.Locate(r.Teff, r.LogG)
	}
	m.rings[theta] = r
	return r, nil
}
