// Public domain.

package astro_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/pars-astro/pars/internal/astro"
)

func ExampleTau() {
	fmt.Printf("%.0f\n", astro.Tau(1, 1))
	fmt.Printf("%.0f\n", astro.Tsun)
	// Output:
	// 5777
	// 5777
}

func TestPlanckStefanBoltzmann(t *testing.T) {
	// pi times the integral of B over frequency is sigma T⁴.
	const temp = 9000.
	var wl, light []float64
	for w := 10.; w < 200000; w *= 1.002 {
		wl = append(wl, w)
		light = append(light, math.Pi*astro.Planck(w, temp))
	}
	got := astro.Bolometric(light, wl)
	want := astro.Sigma * math.Pow(temp, 4)
	if math.Abs(got/want-1) > 1e-3 {
		t.Fatalf("integrated Planck = %g, want %g", got, want)
	}
}

func TestBolometricGap(t *testing.T) {
	wl := []float64{100, 200, 300}
	light := []float64{astro.PerHz(1, 100), math.NaN(), astro.PerHz(1, 300)}
	if got := astro.Bolometric(light, wl); got != 0 {
		t.Fatal("gap not skipped:", got)
	}
	light[1] = astro.PerHz(1, 200)
	if got := astro.Bolometric(light, wl); math.Abs(got-200) > 1e-9 {
		t.Fatal("flat spectrum integral:", got)
	}
}

func TestConversions(t *testing.T) {
	for _, wl := range []float64{91.2, 550, 2200} {
		if x := astro.PerHz(astro.PerNm(3, wl), wl); math.Abs(x-3) > 1e-12 {
			t.Fatal(wl, x)
		}
	}
	if g := astro.LogGamma(1, 1); math.Abs(g-4.438) > 1e-3 {
		t.Fatal("solar log g:", g)
	}
}
