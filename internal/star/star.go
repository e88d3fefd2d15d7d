// Public domain.

// Package star synthesizes the light of a rotating star seen at a given
// inclination.
//
// Geometry comes from package roche, local temperature from gdark, and
// specific intensity from limb darkening fits in ldstore.  Light at one
// wavelength is the integral of I(mu)·mu over the visible surface, done in
// closed form over azimuth (azint) and by Gauss-Legendre quadrature over
// colatitude (quad).
//
// Geometry and temperature of a ring of the surface do not depend on
// wavelength or inclination.  They are computed once per ring and kept in
// a Memo owned by the caller.
package star

import (
	"fmt"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/gdark"
	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/quad"
	"github.com/pars-astro/pars/internal/roche"
)

// RotationState describes a star.
type RotationState struct {
	Omega float64 // rotation rate as a fraction of critical
	L     float64 // luminosity, solar luminosities
	M     float64 // mass, solar masses
	Req   float64 // equatorial radius, solar radii
}

func (r RotationState) String() string {
	return fmt.Sprintf("ω=%g L=%g M=%g Req=%g", r.Omega, r.L, r.M, r.Req)
}

// Star holds everything about a star that does not depend on inclination
// or wavelength.  It is immutable and safe for concurrent use.
type Star struct {
	rot    RotationState
	surf   *roche.Surface
	store  *ldstore.Store
	norm   gdark.Norm
	tau    float64 // temperature scale, K
	rule   quad.Rule
	solver gdark.Config
}

// Option configures a Star.
type Option func(*Star)

// WithRule sets the colatitude quadrature rule.
func WithRule(r quad.Rule) Option { return func(s *Star) { s.rule = r } }

// WithSolver sets the temperature solver configuration.
func WithSolver(c gdark.Config) Option { return func(s *Star) { s.solver = c } }

// New validates a rotation state and computes the flux normalization for
// it.  Store may be nil for a star used only for geometry and
// temperature.
func New(rot RotationState, store *ldstore.Store, opts ...Option) (*Star, error) {
	surf, err := roche.New(rot.Omega)
	if err != nil {
		return nil, err
	}
	if !(rot.L > 0 && rot.M > 0 && rot.Req > 0) {
		return nil, fmt.Errorf("star: L, M, Req must be positive: %v", rot)
	}
	s := &Star{
		rot:    rot,
		surf:   surf,
		store:  store,
		tau:    astro.Tau(rot.L, rot.Req),
		rule:   quad.Default,
		solver: gdark.DefaultConfig,
	}
	for _, o := range opts {
		o(s)
	}
	if err = s.rule.Valid(); err != nil {
		return nil, err
	}
	if s.norm, err = gdark.Normalize(surf, s.rule, s.solver); err != nil {
		return nil, fmt.Errorf("star: %v: %w", rot, err)
	}
	logger().Debug("star ready", "rotation", rot.String(), "kappa", s.norm.Kappa,
		"flatness", surf.Flatness(), "tau", s.tau)
	return s, nil
}

// Rotation returns the rotation state of the star.
func (s *Star) Rotation() RotationState { return s.rot }

// Surface returns the shape of the star.
func (s *Star) Surface() *roche.Surface { return s.surf }

// Norm returns the flux normalization of the star.
func (s *Star) Norm() gdark.Norm { return s.norm }

// Rule returns the colatitude quadrature rule.
func (s *Star) Rule() quad.Rule { return s.rule }
