// Public domain.

// Package astro, stuff generally useful in the astrophysics of stellar
// surfaces.  Units are cgs unless noted.
package astro

import "math"

// Physical constants.
const (
	Lsun  = 3.839e33       // solar luminosity, erg/s
	G     = 6.674e-8       // gravitational constant, cm³ g⁻¹ s⁻²
	Msun  = 1.989e33       // solar mass, g
	Rsun  = 6.9551e10      // solar radius, cm
	Sigma = 5.6704e-5      // Stefan-Boltzmann constant, erg cm⁻² s⁻¹ K⁻⁴
	C     = 2.99792458e10  // speed of light, cm/s
	H     = 6.62606885e-27 // Planck constant, erg s
	K     = 1.3806504e-16  // Boltzmann constant, erg/K
)

// Tsun is the effective temperature of the sun implied by the constants.
var Tsun = math.Pow(Lsun/(4*math.Pi*Sigma*Rsun*Rsun), .25)

// Tau computes pseudo effective temperature, the effective temperature of a
// sphere with the equatorial radius and luminosity of the star.
//
// Args:
//   l   = luminosity in solar luminosities
//   req = equatorial radius in solar radii
func Tau(l, req float64) float64 {
	return Tsun * math.Sqrt(math.Sqrt(l)/req)
}

// LogGamma computes log10 of pseudo effective gravity, GM/Req², in cgs.
// Mass m is in solar masses, req in solar radii.
func LogGamma(m, req float64) float64 {
	r := req * Rsun
	return math.Log10(G * m * Msun / (r * r))
}

// VsinI computes projected equatorial velocity in cm/s for mass m and
// equatorial radius req in solar units, rotation omega as a fraction of
// critical and inclination inc in radians.
func VsinI(m, req, omega, inc float64) float64 {
	return omega * math.Sqrt(G*m*Msun/(req*Rsun)) * math.Sin(inc)
}

// Planck computes black body specific intensity B_nu in
// erg s⁻¹ cm⁻² Hz⁻¹ sr⁻¹ at wavelength wl in nm and temperature t in K.
func Planck(wl, t float64) float64 {
	nu := Hz(wl)
	x := H * nu / (K * t)
	return 2 * H * nu * nu * nu / (C * C) / math.Expm1(x)
}

// Hz converts wavelength in nm to frequency in Hz.
func Hz(wl float64) float64 {
	return 1e7 * C / wl
}

// PerNm converts a quantity per Hz of frequency to the same quantity per nm
// of wavelength, at wavelength wl in nm.
func PerNm(x, wl float64) float64 {
	return x * 1e7 * C / (wl * wl)
}

// PerHz converts a quantity per nm of wavelength to the same quantity per
// Hz of frequency, at wavelength wl in nm.
func PerHz(x, wl float64) float64 {
	return x * wl * wl / (1e7 * C)
}

// Bolometric integrates light per Hz over wavelength with the trapezoid
// rule, returning the total.  Wavelengths wl are in nm, ascending, and
// must be the same length as light.  NaN entries are treated as gaps and
// the trapezoids touching them are skipped.
func Bolometric(light, wl []float64) (sum float64) {
	for i := 1; i < len(wl) && i < len(light); i++ {
		f0, f1 := light[i-1], light[i]
		if math.IsNaN(f0) || math.IsNaN(f1) {
			continue
		}
		sum += .5 * (PerNm(f0, wl[i-1]) + PerNm(f1, wl[i])) * (wl[i] - wl[i-1])
	}
	return
}
