// Public domain.

package astro_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/pars-astro/pars/internal/astro"
)

func ExampleAlam() {
	for _, wl := range []float64{217.5, 440, 547, 800, 2200} {
		a, _ := astro.Alam(wl, 3.1)
		fmt.Printf("%6.1f nm  %.3f\n", wl, a)
	}
	// Output:
	//  217.5 nm  3.076
	//  440.0 nm  1.307
	//  547.0 nm  0.985
	//  800.0 nm  0.553
	// 2200.0 nm  0.111
}

func TestAlamAnchors(t *testing.T) {
	const rv = 3.1
	for _, c := range []struct{ wl, k float64 }{
		{2650, .26469*rv/3.1 - rv},
		{1220, .82925*rv/3.1 - rv},
		{547, -5.13540e-2 + 1.00216*rv - 7.35778e-5*rv*rv - rv},
	} {
		a, err := astro.Alam(c.wl, rv)
		if err != nil {
			t.Fatal(err)
		}
		if want := c.k/rv + 1; math.Abs(a-want) > 1e-12 {
			t.Errorf("%g nm: %.15g, want %.15g", c.wl, a, want)
		}
	}
	// E(B-V)/A(V) is near 1/R(V)
	b, _ := astro.Alam(440, rv)
	v, _ := astro.Alam(547, rv)
	if math.Abs((b-v)*rv-1) > .01 {
		t.Errorf("A(B)-A(V) = %g", b-v)
	}
	// ultraviolet and optical pieces meet at 270 nm
	lo, _ := astro.Alam(270*(1-1e-9), rv)
	hi, _ := astro.Alam(270*(1+1e-9), rv)
	if math.Abs(lo-hi) > 1e-6 {
		t.Errorf("270 nm: %g, %g", lo, hi)
	}
	for _, wl := range []float64{50, 90, 6100, math.NaN()} {
		if _, err := astro.Alam(wl, rv); err == nil {
			t.Errorf("%g nm: no error", wl)
		}
	}
	if _, err := astro.Alam(547, 0); err == nil {
		t.Error("R(V) 0: no error")
	}
}

// triangle peaks at 550 nm, zero at 500 and 600.
func triangle(t *testing.T) *astro.Passband {
	var wl, tr []float64
	for w := 500.; w <= 600; w += 10 {
		wl = append(wl, w)
		tr = append(tr, 1-math.Abs(w-550)/50)
	}
	p, err := astro.NewPassband(wl, tr)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPassband(t *testing.T) {
	p := triangle(t)
	if m := p.Mean(); math.Abs(m-550) > 1e-9 {
		t.Errorf("mean %g", m)
	}
	if x := p.At(550); math.Abs(x-1) > 1e-12 {
		t.Errorf("peak %g", x)
	}
	if x := p.At(525); math.Abs(x-.5) > 1e-12 {
		t.Errorf("half %g", x)
	}
	if p.At(499) != 0 || p.At(601) != 0 {
		t.Error("transmits outside curve")
	}
	for _, c := range []struct{ wl, t []float64 }{
		{[]float64{500}, []float64{1}},
		{[]float64{500, 600}, []float64{1}},
		{[]float64{600, 500}, []float64{1, 1}},
		{[]float64{500, 600}, []float64{0, -1}},
		{[]float64{500, 600}, []float64{0, 0}},
	} {
		if _, err := astro.NewPassband(c.wl, c.t); err == nil {
			t.Errorf("%v %v: no error", c.wl, c.t)
		}
	}
}

func TestFilter(t *testing.T) {
	p := triangle(t)
	// light of 1 per nm everywhere
	var wl, light []float64
	for w := 400.; w <= 700; w += 5 {
		wl = append(wl, w)
		light = append(light, astro.PerHz(1, w))
	}
	if f := p.Filter(light, wl, nil); math.Abs(f-1) > 1e-12 {
		t.Fatal("flat spectrum:", f)
	}
	alam := make([]float64, len(wl))
	for i := range alam {
		alam[i] = 2.5
	}
	if f := p.Filter(light, wl, alam); math.Abs(f-.1) > 1e-12 {
		t.Fatal("one magnitude of extinction per 2.5:", f)
	}
	// gaps outside the passband don't matter, inside they do
	light[0] = math.NaN()
	if f := p.Filter(light, wl, nil); math.Abs(f-1) > 1e-12 {
		t.Fatal("gap outside:", f)
	}
	light[30] = math.NaN() // 550 nm
	if f := p.Filter(light, wl, nil); !math.IsNaN(f) {
		t.Fatal("gap inside:", f)
	}
	if f := p.Filter([]float64{1, 1}, []float64{300, 400}, nil); f != 0 {
		t.Fatal("no overlap:", f)
	}
}
