/*
Command calcstar prints the surface of a rotating star.

For a star in solid body rotation, calcstar lists radius, effective
gravity, the angle of the surface normal from the rotation axis, effective
temperature and log g from pole to equator.  None of these depend on the
inclination of the star or need limb darkening fits, so calcstar is a
quick check of a rotation state before running pars.

Usage

Command line options:

  calcstar [-w omega] [-l luminosity] [-m mass] [-r radius] [-n rows]
  calcstar -v

  -w  rotation as a fraction of critical, in [0, 1), default 0
  -l  luminosity, solar luminosities, default 1
  -m  mass, solar masses, default 1
  -r  equatorial radius, solar radii, default 1
  -n  number of rows, pole to equator inclusive, default 10

Output

A heading gives the rotation state, the polar radius, the equatorial
velocity, the flux constant found for the gravity darkening model, and
the luminosity recovered by integrating σT⁴ over the surface, which should
match -l closely, and an estimate of the integration error in solar
luminosities.
Columns are colatitude in degrees, radius in units of the equatorial
radius, gravity in units of GM/Req², the normal angle in degrees,
Teff in K and log g in cgs.

-------------
Public domain.
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/soniakeys/exit"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/quad"
	"github.com/pars-astro/pars/internal/star"
)

const versionString = "calcstar version 0.1 Go source."
const copyrightString = "Public domain."

// fine is the rule for the luminosity check.
var fine = quad.Rule{Order: 16, Panels: 32}

func printTable(w io.Writer, s *star.Star, n int) error {
	rows, err := s.Table(n)
	if err != nil {
		return err
	}
	l, dl, err := s.Luminosity(fine)
	if err != nil {
		return err
	}
	rot := s.Rotation()
	veq := astro.VsinI(rot.M, rot.Req, rot.Omega, math.Pi/2) / 1e5
	fmt.Fprintln(w, rot)
	fmt.Fprintf(w, "Rpole=%.6f Req  veq=%.1f km/s  kappa=%.9f  L=%.6f Lsun  dL=%.1e\n",
		s.Surface().PolarRadius(), veq, s.Norm().Kappa, l/astro.Lsun, dl/astro.Lsun)
	fmt.Fprintln(w, " theta       r       g     psi      Teff   logg")
	for _, r := range rows {
		fmt.Fprintf(w, "%6.2f %7.5f %7.5f %7.3f %9.1f %6.3f\n",
			r.Theta.Deg(), r.R, r.G, r.Psi.Deg(), r.Teff, r.LogG)
	}
	return nil
}

func main() {
	defer exit.Handler()
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
  calcstar [-w omega] [-l luminosity] [-m mass] [-r radius] [-n rows]
  calcstar -v

For full documentation:
   go doc github.com/pars-astro/pars/calcstar
`)
	}
	var rot star.RotationState
	flag.Float64Var(&rot.Omega, "w", 0, "rotation, fraction of critical")
	flag.Float64Var(&rot.L, "l", 1, "luminosity, solar")
	flag.Float64Var(&rot.M, "m", 1, "mass, solar")
	flag.Float64Var(&rot.Req, "r", 1, "equatorial radius, solar")
	n := flag.Int("n", 10, "rows")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(1)
	}
	s, err := star.New(rot, nil)
	if err != nil {
		exit.Log(err)
	}
	if err := printTable(os.Stdout, s, *n); err != nil {
		exit.Log(err)
	}
}
