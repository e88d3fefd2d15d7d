// Public domain.

package astro

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/soniakeys/meeus/v3/interp"
)

// Passband is the transmission curve of a photometric filter.
type Passband struct {
	wl, t []float64
}

// NewPassband returns a passband with transmission t at wavelengths wl in
// nm.  Wavelengths must be ascending and there must be at least two.
func NewPassband(wl, t []float64) (*Passband, error) {
	if len(wl) != len(t) {
		return nil, fmt.Errorf("astro: %d filter wavelengths, %d transmissions",
			len(wl), len(t))
	}
	if len(wl) < 2 {
		return nil, errors.New("astro: filter curve needs two or more points")
	}
	for i := 1; i < len(wl); i++ {
		if !(wl[i] > wl[i-1]) {
			return nil, fmt.Errorf("astro: filter wavelengths not ascending at %g",
				wl[i])
		}
	}
	var sum float64
	for _, x := range t {
		if !(x >= 0) {
			return nil, fmt.Errorf("astro: filter transmission %g", x)
		}
		sum += x
	}
	if sum == 0 {
		return nil, errors.New("astro: filter transmits nothing")
	}
	return &Passband{slices.Clone(wl), slices.Clone(t)}, nil
}

// At returns the transmission at wl, interpolated with the cubic through
// the four nearest points of the curve.  It is zero outside the curve and
// never negative.
func (p *Passband) At(wl float64) float64 {
	if !(wl >= p.wl[0] && wl <= p.wl[len(p.wl)-1]) {
		return 0
	}
	return math.Max(0, cubic(wl, p.wl, p.t))
}

// Mean returns the transmission weighted mean wavelength in nm.
func (p *Passband) Mean() float64 {
	var num, den float64
	for i := 1; i < len(p.wl); i++ {
		d := .5 * (p.wl[i] - p.wl[i-1])
		num += d * (p.wl[i-1]*p.t[i-1] + p.wl[i]*p.t[i])
		den += d * (p.t[i-1] + p.t[i])
	}
	return num / den
}

// Filter integrates light per Hz at wavelengths wl in nm through the
// passband and returns light per nm, averaged over the transmission.
// Alam, if not nil, is extinction in magnitudes at each wavelength.
//
// Wavelengths where the passband transmits nothing are ignored.  A NaN
// light within the passband makes the result NaN.  If no wavelength falls
// in the passband the result is 0.
func (p *Passband) Filter(light, wl, alam []float64) float64 {
	n := min(len(light), len(wl))
	var sum, norm float64
	for i := 0; i < n; i++ {
		t := p.At(wl[i])
		if t == 0 {
			continue
		}
		// trapezoid weight
		var d float64
		if i > 0 {
			d += wl[i] - wl[i-1]
		}
		if i < n-1 {
			d += wl[i+1] - wl[i]
		}
		d *= .5
		f := PerNm(light[i], wl[i]) * t
		if alam != nil {
			f *= math.Pow(10, -alam[i]/2.5)
		}
		sum += d * f
		norm += d * t
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// cubic interpolates at v through the points of xs, ys nearest v, four
// when there are that many.  Xs must be ascending.
func cubic(v float64, xs, ys []float64) float64 {
	n := len(xs)
	i := sort.SearchFloat64s(xs, v) - 2
	i = max(0, min(i, n-4))
	j := min(i+4, n)
	tab := make([]struct{ X, Y float64 }, 0, j-i)
	for k := i; k < j; k++ {
		tab = append(tab, struct{ X, Y float64 }{xs[k], ys[k]})
	}
	return interp.Lagrange(v, tab)
}

// Fitzpatrick (1999) ultraviolet parameters, inverse microns.
const (
	f99x0    = 4.596
	f99gamma = .99
	f99c3    = 3.23
	f99c4    = .41
	f99c5    = 5.9
)

// Alam returns interstellar extinction at wavelength wl in nm relative to
// extinction in V, A(λ)/A(V), from the curve of Fitzpatrick (1999), PASP
// 111, 63.  Rv is the ratio of total to selective extinction, commonly 3.1.
// Optical and infrared anchor points are those of the IDL astrolib
// implementation.  The curve is defined from 91 nm to 6 µm.
func Alam(wl, rv float64) (float64, error) {
	if !(rv > 0) {
		return 0, fmt.Errorf("astro: R(V) %g", rv)
	}
	x := 1e3 / wl
	if !(x >= .167 && x <= 11) {
		return 0, fmt.Errorf("astro: wavelength %g nm outside extinction curve", wl)
	}
	c2 := -.824 + 4.717/rv
	c1 := 2.030 - 3.007*c2
	uv := func(x float64) float64 {
		x2 := x * x
		q := x2 - f99x0*f99x0
		return c1 + c2*x + f99c3*x2/(q*q+x2*f99gamma*f99gamma)
	}
	var k float64
	if x >= 1e4/2700 {
		k = uv(x)
		if x >= f99c5 {
			y := x - f99c5
			k += f99c4 * (.5392*y*y + .05644*y*y*y)
		}
	} else {
		ax := []float64{0, 1e4 / 26500, 1e4 / 12200, 1e4 / 6000, 1e4 / 5470,
			1e4 / 4670, 1e4 / 4110, 1e4 / 2700, 1e4 / 2600}
		r2 := rv * rv
		ak := []float64{
			-rv,
			.26469*rv/3.1 - rv,
			.82925*rv/3.1 - rv,
			-.422809 + 1.00270*rv + 2.13572e-4*r2 - rv,
			-5.13540e-2 + 1.00216*rv - 7.35778e-5*r2 - rv,
			.700127 + 1.00184*rv - 3.32598e-5*r2 - rv,
			1.19456 + 1.01707*rv - 5.46959e-3*r2 + 7.97809e-4*r2*rv -
				4.45636e-5*r2*r2 - rv,
			uv(ax[7]),
			uv(ax[8]),
		}
		k = cubic(x, ax, ak)
	}
	return k/rv + 1, nil
}
