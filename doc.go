/*
Command pars computes the spectrum of a rotating star as it would be seen
from a number of inclinations.

Contents

Version 0.1

  Program overview
  Installing
  Command line usage
  Configuration file
  File formats
  Algorithm outline


Program overview

A rapidly rotating star is flattened by its rotation and is hotter at the
poles than at the equator.  How bright it appears, and how its light is
distributed in wavelength, depends on the angle from which it is seen.
Pars models the star's surface as a Roche equipotential, computes the
effective temperature over the surface with the gravity darkening model of
Espinosa Lara and Rieutord, and integrates specific intensity over the
visible disk using limb darkening fits to model atmospheres.

Input is a rotation state given on the command line and a file of limb
darkening fits.  Output is the light of the star, in erg/s/Hz/sr, at each
requested inclination and each wavelength of the fit grid.

Sample run:

  pars -w .6 -l 1.5 -m 1.7 -r 1.4 -i 0,90 -wl 400,800

  pars version 0.1 Go source.
  ω=0.6 L=1.5 M=1.7 Req=1.4
    incl    wl(nm)         light
    0.00    400.00  ...
    ...
    0.00       bol  ...
   90.00    400.00  ...

Lines marked with * are wavelengths or surface temperatures outside the fit
grid.  The line marked bol is the light integrated over frequency.


Installing

    go install github.com/pars-astro/pars@latest
    go install github.com/pars-astro/pars/calclimbdark@latest
    go install github.com/pars-astro/pars/calcstar@latest

Pars needs a fit file, limbdark.gob, created by calclimbdark from a table
of model atmosphere intensities.  Calcstar prints the surface of a rotating
star and needs no fit file.


Command line usage

  pars [options] [fit-file]    compute spectra of a rotating star
  pars -h                      display help and quick reference
  pars -v                      display version and copyright

Options:

  -w <omega>        rotation, fraction of critical, in [0, 1)
  -l <luminosity>   solar luminosities
  -m <mass>         solar masses
  -r <radius>       equatorial radius, solar radii
  -i <deg,deg,...>  inclinations, 0 is pole-on
  -wl <min,max>     wavelength range in nm, default the whole grid
  -c <config-file>  default pars.config in the current directory, if present
  -metrics <file>   write Prometheus metrics in the text format
  -trace            write OpenTelemetry trace spans to stderr
  -d                debug logging

The fit file defaults to limbdark.gob in the current directory.

With -metrics, counts of flux evaluations, grid bound failures and fit
quality warnings, and the time spent per inclination, are written at the
end of the run in a form suitable for the node exporter's textfile
collector.


Configuration file

The config file is optional.  Lines starting with # are comments.
Keywords, one per line:

   headings
   noheadings
   bolometric
   nobolometric
   order=N
   panels=N
   workers=N
   filter=<file>
   av=<magnitudes>
   rv=<R(V)>

Headings and the bolometric line can be turned off.  Order and panels set
the Gauss-Legendre rule used over colatitude, N nodes per panel and N
panels per segment.  Defaults are order=8 and panels=16.  Workers limits
the number of inclinations computed concurrently; the default is the
number of CPUs.  White space around = is optional.

Filter names a transmission curve file, lines of wavelength in nm and
transmission, with # comments.  With a filter, each inclination gets a
line labeled "filter" giving the spectrum integrated through the curve
and normalized by the integral of the curve, converted to per Hz at the
transmission weighted mean wavelength.  Av dims the light by interstellar
extinction, av magnitudes in V, with the Fitzpatrick (1999) curve for
R(V) = rv.  Defaults are av=0 and rv=3.1.  The filter line is a sum over
the computed wavelengths, so the wavelength range should cover the
filter.

Example:

  noheadings
  nobolometric
  order=6

prints only the spectrum lines, suitable for input to another program.


File formats

The fit file is a gob encoding of a grid of piecewise polynomial fits of
intensity against mu, the cosine of the angle from the surface normal.
Fits are on a regular grid of effective temperature, log g and
wavelength, though some (Teff, log g) nodes may be missing, as they are in
model atmosphere grids.  See calclimbdark for the text table it is made
from.


Algorithm outline

1.  The surface is found as a function of colatitude from the Roche
potential of a point mass in solid body rotation.  Effective gravity and
the direction of the surface normal follow from the potential.

2.  Flux at each colatitude follows the Espinosa Lara-Rieutord relation,
solved by Newton's method, scaled so that the surface integral of flux is
the star's luminosity.  Effective temperature and log g are then known
everywhere.

3.  At each colatitude the visible part of the ring of constant colatitude
is found for the inclination.  Intensity times mu, a piecewise polynomial
in the azimuth's cosine, is integrated over azimuth in closed form.

4.  The result is integrated over colatitude with composite Gauss-Legendre
quadrature, with breakpoints where rings become partially visible and
where they become hidden.

-------------
Public domain.
*/
package main
