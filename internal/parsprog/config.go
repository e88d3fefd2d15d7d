// Public domain.

package parsprog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/pars-astro/pars/internal/astro"
	"github.com/pars-astro/pars/internal/quad"
)

type outputOptions struct {
	headings, bolometric bool
	rule                 quad.Rule
	workers              int // 0 for GOMAXPROCS

	filter string          // transmission curve file
	band   *astro.Passband // read from filter
	av, rv float64         // extinction through the filter
}

func defaultOptions() *outputOptions {
	return &outputOptions{
		headings:   true,
		bolometric: true,
		rule:       quad.Default,
		rv:         3.1,
	}
}

var rxSetting = regexp.MustCompile(`^[ \t]*([a-z]+)[ \t]*=[ \t]*(.+?)[ \t]*$`)

// parseConfig reads keyword lines from r into opt.
func parseConfig(r io.Reader, opt *outputOptions) error {
	for lr := bufio.NewReader(r); ; {
		l, isPre, err := lr.ReadLine()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		case isPre:
			return errors.New("Unexpected long line in config file.")
		case len(l) == 0:
			continue
		case l[0] == '#':
			continue
		}
		ls := strings.TrimSpace(string(l))
		switch ls {
		case "":
			continue
		case "headings":
			opt.headings = true
			continue
		case "noheadings":
			opt.headings = false
			continue
		case "bolometric":
			opt.bolometric = true
			continue
		case "nobolometric":
			opt.bolometric = false
			continue
		}
		ss := rxSetting.FindStringSubmatch(ls)
		if len(ss) != 3 {
			return fmt.Errorf("Unrecognized line in config file: %s", ls)
		}
		switch ss[1] {
		case "filter":
			opt.filter = ss[2]
			continue
		case "av", "rv":
			x, err := strconv.ParseFloat(ss[2], 64)
			if err != nil {
				return fmt.Errorf("%v\nConfig file line: %s", err, ls)
			}
			if ss[1] == "av" && !(x >= 0) || ss[1] == "rv" && !(x > 0) ||
				math.IsInf(x, 1) {
				return fmt.Errorf("Invalid value in config file: %s", ls)
			}
			if ss[1] == "av" {
				opt.av = x
			} else {
				opt.rv = x
			}
			continue
		}
		n, err := strconv.Atoi(ss[2])
		if err != nil {
			return fmt.Errorf("%v\nConfig file line: %s", err, ls)
		}
		switch ss[1] {
		case "order":
			opt.rule.Order = n
		case "panels":
			opt.rule.Panels = n
		case "workers":
			opt.workers = n
		default:
			return fmt.Errorf("Unrecognized setting in config file: %s", ls)
		}
		if n < 0 || ss[1] != "workers" && n == 0 {
			return fmt.Errorf("Invalid value in config file: %s", ls)
		}
	}
}

// readPassband reads a filter transmission curve, one wavelength in nm and
// one transmission per line.  Lines starting with # are comments.
func readPassband(r io.Reader) (*astro.Passband, error) {
	var wl, tr []float64
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		f := strings.Fields(sc.Text())
		if len(f) == 0 || strings.HasPrefix(f[0], "#") {
			continue
		}
		if len(f) != 2 {
			return nil, fmt.Errorf("filter line %d: want wavelength and transmission", n)
		}
		w, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, fmt.Errorf("filter line %d: %w", n, err)
		}
		t, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, fmt.Errorf("filter line %d: %w", n, err)
		}
		wl = append(wl, w)
		tr = append(tr, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return astro.NewPassband(wl, tr)
}

// parseInclinations parses a comma separated list of degrees.
func parseInclinations(s string) ([]unit.Angle, error) {
	var incs []unit.Angle
	for _, f := range strings.Split(s, ",") {
		d, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("inclination %q: %w", f, err)
		}
		if !(d >= 0 && d <= 180) {
			return nil, fmt.Errorf("inclination %g outside [0, 180] degrees", d)
		}
		incs = append(incs, unit.AngleFromDeg(d))
	}
	return incs, nil
}

// parseRange parses "min,max" in nm.  An empty string is the whole axis.
func parseRange(s string) (lo, hi float64, err error) {
	if s == "" {
		return 0, math.Inf(1), nil
	}
	f := strings.Split(s, ",")
	if len(f) != 2 {
		return 0, 0, fmt.Errorf("wavelength range %q: want min,max", s)
	}
	if lo, err = strconv.ParseFloat(strings.TrimSpace(f[0]), 64); err != nil {
		return 0, 0, fmt.Errorf("wavelength range %q: %w", s, err)
	}
	if hi, err = strconv.ParseFloat(strings.TrimSpace(f[1]), 64); err != nil {
		return 0, 0, fmt.Errorf("wavelength range %q: %w", s, err)
	}
	if !(lo <= hi) {
		return 0, 0, fmt.Errorf("wavelength range %q: min > max", s)
	}
	return lo, hi, nil
}

// selectWavelengths returns the grid wavelengths within [lo, hi].
func selectWavelengths(grid []float64, lo, hi float64) []float64 {
	var wls []float64
	for _, wl := range grid {
		if wl >= lo && wl <= hi {
			wls = append(wls, wl)
		}
	}
	return wls
}
