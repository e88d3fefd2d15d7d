/*
Command calclimbdark generates a file, limbdark.gob, for use by the program
pars.

Calclimbdark reads a table of specific intensities computed from model
atmospheres and fits each with a piecewise polynomial in mu, the cosine of
the angle from the surface normal.  The fits are stored on a grid of
effective temperature, log g, and wavelength.

Usage

   calclimbdark [-b bounds] [-d degree] [-o output file] <table>
   calclimbdark -v

The table is text, one line per grid node.  Fields are separated by white
space:

   teff logg wavelength I(0.01) I(0.025) ... I(1)

Teff is in K, log g in cgs, wavelength in nm.  The 17 intensities are at
the values of mu tabulated by Castelli and Kurucz,

   .01 .025 .05 .075 .1 .125 .15 .2 .25 .3 .4 .5 .6 .7 .8 .9 1

Blank lines and lines starting with # are ignored.  Nodes must form a
grid, except that (teff, logg) pairs may be missing entirely.

Option -b gives the interior mu bounds of the fit intervals as a comma
separated list.  The default is .1,.4, giving intervals [0, .1], [.1, .4],
and [.4, 1].  Option -d gives the polynomial degree, default 4.

Fits are checked on a fine grid of mu.  Fits that go negative or that
decrease toward the limb are flagged in the output file, and pars reports
them as warnings when they are used.  A summary of fit quality is printed.

-------------
Public domain.
*/
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/exit"

	"github.com/pars-astro/pars/internal/ldfit"
	"github.com/pars-astro/pars/internal/ldstore"
)

const versionString = "calclimbdark version 0.1"
const copyrightString = "Public domain."

// row is one line of the table.
type row struct {
	teff, logg, wl float64
	i              []float64
}

// readTable reads intensity table lines.
func readTable(r io.Reader) ([]row, error) {
	var rows []row
	nf := 3 + len(ldfit.MuKurucz)
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		f := strings.Fields(line)
		if len(f) != nf {
			return nil, fmt.Errorf("line %d: %d fields, want %d", ln, len(f), nf)
		}
		v := make([]float64, nf)
		for k, s := range f {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", ln, err)
			}
			v[k] = x
		}
		rows = append(rows, row{v[0], v[1], v[2], v[3:]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("no intensities in table")
	}
	return rows, nil
}

// axes returns the distinct values of each grid axis, ascending.
func axes(rows []row) (teff, logg, wl []float64) {
	for _, r := range rows {
		teff = append(teff, r.teff)
		logg = append(logg, r.logg)
		wl = append(wl, r.wl)
	}
	slices.Sort(teff)
	slices.Sort(logg)
	slices.Sort(wl)
	return slices.Compact(teff), slices.Compact(logg), slices.Compact(wl)
}

// node is the work and result of one fit.
type node struct {
	it, ig, iw int
	r          row
	set        ldfit.Set
	q          ldfit.Quality
	err        error
}

func fitNodes(nCh chan *node, rCh chan *node, bounds []float64, degree int) {
	for n := range nCh {
		n.set, n.err = ldfit.Fit(bounds, degree, ldfit.MuKurucz, n.r.i)
		if n.err == nil {
			n.q = n.set.Check(ldfit.MuKurucz, n.r.i)
		}
		rCh <- n
	}
}

// summary accumulates fit quality over the grid.
type summary struct {
	nodes, negative, nonMonotonic int
	worst                         *node // largest deviation
	lowest                        *node // smallest fitted intensity
}

func (s *summary) add(n *node) {
	s.nodes++
	if n.q.Negative() {
		s.negative++
	}
	if n.q.NonMonotonic() {
		s.nonMonotonic++
	}
	if s.worst == nil || n.q.MaxDev > s.worst.q.MaxDev {
		s.worst = n
	}
	if s.lowest == nil || n.q.MinI < s.lowest.q.MinI {
		s.lowest = n
	}
}

func (s *summary) print(w io.Writer) {
	fmt.Fprintln(w, s.nodes, "fits")
	fmt.Fprintln(w, s.negative, "negative")
	fmt.Fprintln(w, s.nonMonotonic, "non-monotonic")
	if n := s.worst; n != nil {
		fmt.Fprintf(w, "largest deviation %.3g at mu=%g, Teff=%g logg=%g wl=%g\n",
			n.q.MaxDev, n.q.MaxDevMu, n.r.teff, n.r.logg, n.r.wl)
	}
	if n := s.lowest; n != nil {
		fmt.Fprintf(w, "smallest intensity %.3g, Teff=%g logg=%g wl=%g\n",
			n.q.MinI, n.r.teff, n.r.logg, n.r.wl)
	}
}

// build fits all rows on nProc goroutines and returns the grid.
func build(rows []row, bounds []float64, degree, nProc int) (*ldstore.Grid, *summary, error) {
	teff, logg, wl := axes(rows)
	g := ldstore.NewGrid(teff, logg, wl, bounds, degree)

	// a source of nodes
	nCh := make(chan *node)
	go func() {
		for _, r := range rows {
			it, _ := slices.BinarySearch(teff, r.teff)
			ig, _ := slices.BinarySearch(logg, r.logg)
			iw, _ := slices.BinarySearch(wl, r.wl)
			nCh <- &node{it: it, ig: ig, iw: iw, r: r}
		}
		close(nCh)
	}()

	// fitters in parallel, results combined here
	rCh := make(chan *node)
	nProc = max(1, min(nProc, len(rows)))
	for range nProc {
		go fitNodes(nCh, rCh, bounds, degree)
	}
	sum := &summary{}
	seen := make([]bool, len(teff)*len(logg)*len(wl))
	var err error
	for range rows {
		n := <-rCh
		if err != nil {
			continue // drain
		}
		x := g.Nx(n.it, n.ig, n.iw)
		switch {
		case n.err != nil:
			err = fmt.Errorf("Teff=%g logg=%g wl=%g: %w",
				n.r.teff, n.r.logg, n.r.wl, n.err)
		case seen[x]:
			err = fmt.Errorf("Teff=%g logg=%g wl=%g: duplicate",
				n.r.teff, n.r.logg, n.r.wl)
		default:
			seen[x] = true
			err = g.Put(n.it, n.ig, n.iw, n.set, ldstore.Quality(n.q))
			sum.add(n)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	// present (teff, logg) pairs need every wavelength
	for it := range teff {
		for ig := range logg {
			if !g.Present[it*len(logg)+ig] {
				continue
			}
			for iw := range wl {
				if !seen[g.Nx(it, ig, iw)] {
					return nil, nil, fmt.Errorf("Teff=%g logg=%g: missing wl=%g",
						teff[it], logg[ig], wl[iw])
				}
			}
		}
	}
	return g, sum, nil
}

func parseBounds(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var b []float64
	for _, f := range strings.Split(s, ",") {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("bounds %q: %w", s, err)
		}
		if !(x > 0 && x < 1) || len(b) > 0 && !(x > b[len(b)-1]) {
			return nil, fmt.Errorf("bounds %q: want ascending values in (0, 1)", s)
		}
		b = append(b, x)
	}
	return b, nil
}

func main() {
	defer exit.Handler()
	flag.Usage = func() {
		os.Stderr.WriteString(`Usage:
   calclimbdark [-b bounds] [-d degree] [-o output file] <table>
   calclimbdark -v

For full documentation:
   go doc github.com/pars-astro/pars/calclimbdark
`)
	}
	bFlag := flag.String("b", ".1,.4", "interior mu bounds")
	degree := flag.Int("d", ldfit.DefaultDegree, "polynomial degree")
	outFile := flag.String("o", ldstore.Fn, "output file")
	vers := flag.Bool("v", false, "display version and copyright")
	flag.Parse()
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	bounds, err := parseBounds(*bFlag)
	if err != nil {
		exit.Log(err)
	}
	if *degree < 0 {
		exit.Log("Degree must not be negative.")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		exit.Log(err)
	}
	rows, err := readTable(f)
	f.Close()
	if err != nil {
		exit.Log(fmt.Sprintf("%s: %v", flag.Arg(0), err))
	}
	slog.Info("table read", "file", flag.Arg(0), "lines", len(rows))

	g, sum, err := build(rows, bounds, *degree, runtime.GOMAXPROCS(0))
	if err != nil {
		exit.Log(err)
	}
	g.Created = time.Now().UTC()
	g.Source = flag.Arg(0)
	sum.print(os.Stdout)

	// a last check that pars will accept it
	if _, err := ldstore.New(g); err != nil {
		exit.Log(err)
	}
	if err := ldstore.WriteFile(*outFile, g); err != nil {
		exit.Log(err)
	}
}
