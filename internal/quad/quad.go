// Public domain.

// Package quad integrates functions of one variable with composite
// Gauss-Legendre rules.
//
// A Rule is a stated configuration: Order nodes in each of Panels equal
// panels per segment, segments running between caller supplied breakpoints.
// Node positions depend only on the rule and the breakpoints, so results are
// reproducible.  Breakpoints should be placed where the integrand or its
// derivatives are discontinuous.
package quad

import (
	"fmt"
	"math"
)

// Rule is a composite Gauss-Legendre rule.
type Rule struct {
	Order  int // nodes per panel
	Panels int // equal panels per segment
}

// Default is the rule used when none is configured.  It integrates
// polynomials of degree 15 exactly on each panel.
var Default = Rule{Order: 8, Panels: 16}

// Valid checks that a rule has at least one node and one panel.
func (r Rule) Valid() error {
	if r.Order < 1 || r.Panels < 1 {
		return fmt.Errorf("quad: invalid rule, order %d, panels %d",
			r.Order, r.Panels)
	}
	return nil
}

// Legendre computes the n nodes and weights of the Gauss-Legendre rule on
// [-1, 1].  Nodes are ascending.
func Legendre(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	for i := 0; i < (n+1)/2; i++ {
		// Tricomi's initial guess, then Newton on P_n.
		z := math.Cos(math.Pi * (float64(i) + .75) / (float64(n) + .5))
		var dp float64
		for it := 0; it < 100; it++ {
			p0, p1 := 1., z
			for k := 2; k <= n; k++ {
				p0, p1 = p1, ((2*float64(k)-1)*z*p1-(float64(k)-1)*p0)/float64(k)
			}
			// derivative from the recurrence
			dp = float64(n) * (z*p1 - p0) / (z*z - 1)
			dz := p1 / dp
			z -= dz
			if math.Abs(dz) < 1e-16 {
				break
			}
		}
		// recompute derivative at the converged node
		p0, p1 := 1., z
		for k := 2; k <= n; k++ {
			p0, p1 = p1, ((2*float64(k)-1)*z*p1-(float64(k)-1)*p0)/float64(k)
		}
		dp = float64(n) * (z*p1 - p0) / (z*z - 1)
		wi := 2 / ((1 - z*z) * dp * dp)
		x[i], x[n-1-i] = -z, z
		w[i], w[n-1-i] = wi, wi
	}
	if n%2 == 1 {
		x[n/2] = 0
	}
	return
}

// Nodes returns the abscissas and weights of the rule over the segments
// between consecutive breakpoints.  Breakpoints must be ascending; empty
// segments contribute no nodes.
func (r Rule) Nodes(breaks ...float64) (x, w []float64) {
	gx, gw := Legendre(r.Order)
	for s := 1; s < len(breaks); s++ {
		a, b := breaks[s-1], breaks[s]
		if !(b > a) {
			continue
		}
		h := (b - a) / float64(r.Panels)
		for p := 0; p < r.Panels; p++ {
			lo := a + float64(p)*h
			if p == r.Panels-1 {
				h = b - lo
			}
			mid, half := lo+h/2, h/2
			for i, xi := range gx {
				x = append(x, mid+half*xi)
				w = append(w, half*gw[i])
			}
		}
	}
	return
}

// Integrate integrates f over the segments between consecutive breakpoints.
func (r Rule) Integrate(f func(float64) float64, breaks ...float64) (sum float64) {
	x, w := r.Nodes(breaks...)
	for i, xi := range x {
		sum += w[i] * f(xi)
	}
	return
}

// Estimate integrates with twice the panels of r and reports the absolute
// difference from the result with r as an error estimate.  A rule is
// considered converged for an integrand when the estimate is below the
// caller's tolerance.
func (r Rule) Estimate(f func(float64) float64, breaks ...float64) (v, errEst float64) {
	coarse := r.Integrate(f, breaks...)
	fine := Rule{r.Order, 2 * r.Panels}.Integrate(f, breaks...)
	return fine, math.Abs(fine - coarse)
}
