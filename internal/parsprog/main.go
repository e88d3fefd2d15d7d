// Public domain.

// Package parsprog is the pars command.  It lives in a package so that the
// root of the repository can be both the command and its documentation.
package parsprog

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/exit"
	"github.com/soniakeys/unit"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pars-astro/pars/internal/ldstore"
	"github.com/pars-astro/pars/internal/metrics"
	"github.com/pars-astro/pars/internal/star"
)

const versionString = "pars version 0.1 Go source."
const copyrightString = "Public domain."

func Main() {
	defer exit.Handler()

	// these functions all set up program state and terminate on error
	cl := parseCommandLine()
	log := newLogger(cl.debug)
	if cl.debug {
		star.SetLogger(log)
	}
	opt := readConfig(cl)
	store := readStore(cl)
	wls := selectWavelengths(store.Grid().Wavelength, cl.wlMin, cl.wlMax)
	if len(wls) == 0 {
		exit.Log(fmt.Sprintf("No grid wavelengths in [%g, %g] nm.",
			cl.wlMin, cl.wlMax))
	}

	s, err := star.New(cl.rot, store, star.WithRule(opt.rule))
	if err != nil {
		exit.Log(err)
	}
	log.Info("star", "rotation", cl.rot.String(),
		"kappa", s.Norm().Kappa, "wavelengths", len(wls),
		"order", s.Rule().Order, "panels", s.Rule().Panels)

	var traceW io.Writer
	if cl.trace {
		traceW = os.Stderr
	}
	tracer, shutdown, err := initTracing(traceW)
	if err != nil {
		exit.Log(err)
	}
	defer func() {
		if err := shutdownTracing(shutdown); err != nil {
			log.Warn("tracing shutdown", "error", err)
		}
	}()

	var mc *metrics.Collector
	if cl.metrics > "" {
		if mc, err = metrics.New(prometheus.NewRegistry()); err != nil {
			exit.Log(err)
		}
	}

	// prCh keeps results in submission order.  it is buffered so that a
	// fast worker can drop off a result without waiting for workers ahead
	// of it.
	maxWorkers := opt.workers
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	prCh := make(chan chan result, maxWorkers*2)
	jobCh := make(chan *job)

	// dispatcher.  for each inclination, attach a return channel that works
	// like a ticket for picking up the result, send the job to a worker and
	// drop the ticket in the queue for printing.
	go func() {
		for _, inc := range cl.incs {
			rch := make(chan result, 1)
			jobCh <- &job{inc, rch}
			prCh <- rch
		}
		close(prCh)
		close(jobCh)
	}()

	// workers are started only as jobs call for them.
	w := &worker{s: s, wls: wls, opt: opt, tracer: tracer, metrics: mc, log: log}
	go func() {
		for n := 0; n < maxWorkers; n++ {
			j, ok := <-jobCh
			if !ok {
				return
			}
			go w.run(j, jobCh)
		}
	}()

	// column headings, delayed until now to avoid printing headings only
	// to terminate with an error message if some initialization fails.
	printHeadings(os.Stdout, cl.rot, opt)

	for rch := range prCh {
		r := <-rch
		if r.err != nil {
			exit.Log(r.err)
		}
		fmt.Print(r.text)
	}
	if mc != nil {
		if err := mc.WriteFile(cl.metrics); err != nil {
			exit.Log(err)
		}
	}
}

type job struct {
	inc unit.Angle
	rch chan result
}

type result struct {
	text string
	err  error
}

type worker struct {
	s       *star.Star
	wls     []float64
	opt     *outputOptions
	tracer  trace.Tracer
	metrics *metrics.Collector
	log     *slog.Logger
}

// run computes spectra, starting with j, until jobCh is closed.  Each
// goroutine running run has its own memo.
func (w *worker) run(j *job, jobCh chan *job) {
	m := w.s.NewMemo()
	for ; j != nil; j = <-jobCh {
		_, span := w.tracer.Start(context.Background(), "spectrum",
			trace.WithAttributes(
				attribute.Float64("inclination_deg", j.inc.Deg()),
				attribute.Int("wavelengths", len(w.wls)),
			))
		t0 := time.Now()
		var res []star.FluxResult
		for r := range w.s.Spectrum(m, j.inc, w.wls).All() {
			res = append(res, r)
		}
		w.metrics.Record(res, time.Since(t0))

		var failed int
		for _, r := range res {
			if r.Err != nil {
				failed++
			}
			for _, wq := range r.Warnings {
				w.log.Warn("fit quality", "inclination", j.inc.Deg(),
					"wavelength", r.Wavelength, "warning", wq.String())
			}
		}
		span.SetAttributes(
			attribute.Int("failed", failed),
			attribute.Int("rings", m.Len()),
		)
		// an error other than grid bounds ends the spectrum and concerns
		// the whole star.
		if err := fatal(res); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			j.rch <- result{err: err}
			continue
		}
		span.End()
		j.rch <- result{text: formatSpectrum(j.inc, res, w.opt)}
	}
}

func fatal(res []star.FluxResult) error {
	if len(res) == 0 {
		return nil
	}
	err := res[len(res)-1].Err
	var be *ldstore.GridBoundsError
	if err == nil || errors.As(err, &be) {
		return nil
	}
	return err
}

func formatSpectrum(inc unit.Angle, res []star.FluxResult, opt *outputOptions) string {
	var b strings.Builder
	for _, r := range res {
		if r.Err != nil {
			fmt.Fprintf(&b, "%6.2f %9.2f %13s %v\n",
				inc.Deg(), r.Wavelength, "*", r.Err)
			continue
		}
		fmt.Fprintf(&b, "%6.2f %9.2f %13.6e\n", inc.Deg(), r.Wavelength, r.Light)
	}
	if opt.bolometric {
		fmt.Fprintf(&b, "%6.2f %9s %13.6e\n", inc.Deg(), "bol", star.Bolometric(res))
	}
	if opt.band != nil {
		if f, err := star.Filter(res, opt.band, opt.av, opt.rv); err != nil {
			fmt.Fprintf(&b, "%6.2f %9s %13s %v\n", inc.Deg(), "filter", "*", err)
		} else {
			fmt.Fprintf(&b, "%6.2f %9s %13.6e\n", inc.Deg(), "filter", f)
		}
	}
	return b.String()
}

func printHeadings(w io.Writer, rot star.RotationState, opt *outputOptions) {
	if opt.headings {
		fmt.Fprintln(w, versionString)
		fmt.Fprintln(w, rot)
		if opt.band != nil {
			fmt.Fprintf(w, "filter %s  mean %.1f nm  av=%g rv=%g\n",
				opt.filter, opt.band.Mean(), opt.av, opt.rv)
		}
		fmt.Fprintf(w, "%6s %9s %13s\n", "incl", "wl(nm)", "light")
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

type commandLine struct {
	dc      string // config file
	fnFit   string // fit file
	rot     star.RotationState
	incs    []unit.Angle
	wlMin   float64 // nm
	wlMax   float64
	metrics string // metrics textfile
	trace   bool   // -trace option
	debug   bool   // -d option
}

func parseCommandLine() *commandLine {
	var cl commandLine
	dh := flag.Bool("h", false, "")
	dv := flag.Bool("v", false, "")
	flag.Float64Var(&cl.rot.Omega, "w", 0, "")
	flag.Float64Var(&cl.rot.L, "l", 1, "")
	flag.Float64Var(&cl.rot.M, "m", 1, "")
	flag.Float64Var(&cl.rot.Req, "r", 1, "")
	di := flag.String("i", "0,45,90", "")
	dwl := flag.String("wl", "", "")
	flag.StringVar(&cl.dc, "c", "", "")
	flag.StringVar(&cl.metrics, "metrics", "", "")
	flag.BoolVar(&cl.trace, "trace", false, "")
	flag.BoolVar(&cl.debug, "d", false, "")
	flag.Usage = func() {
		os.Stderr.WriteString(`
Usage: pars [options] [fit-file]    compute spectra of a rotating star
       pars -h                      display help and quick reference
       pars -v                      display version and copyright

Options:
       -w <omega>             rotation, fraction of critical (default 0)
       -l <luminosity>        solar luminosities (default 1)
       -m <mass>              solar masses (default 1)
       -r <radius>            equatorial radius, solar radii (default 1)
       -i <deg,deg,...>       inclinations (default 0,45,90)
       -wl <min,max>          wavelength range, nm (default whole grid)
       -c <config-file>
       -metrics <file>        write Prometheus metrics to file
       -trace                 write trace spans to stderr
       -d                     debug logging

Default fit-file: ` + ldstore.Fn + "\n")
	}
	flag.Parse()
	switch {
	case *dh:
		printHelp()
		os.Exit(0)
	case *dv:
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	case flag.NArg() > 1:
		flag.Usage()
		os.Exit(1)
	}
	cl.fnFit = ldstore.Fn
	if flag.NArg() == 1 {
		cl.fnFit = flag.Arg(0)
	}
	var err error
	if cl.incs, err = parseInclinations(*di); err != nil {
		exit.Log(err)
	}
	if cl.wlMin, cl.wlMax, err = parseRange(*dwl); err != nil {
		exit.Log(err)
	}
	return &cl
}

func readConfig(cl *commandLine) *outputOptions {
	opt := defaultOptions()
	fn := cl.dc
	if fn == "" {
		fn = "pars.config"
	}
	f, err := os.Open(fn)
	if err != nil {
		if cl.dc == "" {
			return opt
		}
		exit.Log(err)
	}
	defer f.Close()
	if err := parseConfig(f, opt); err != nil {
		exit.Log(err)
	}
	if opt.filter > "" {
		ff, err := os.Open(opt.filter)
		if err != nil {
			exit.Log(err)
		}
		defer ff.Close()
		if opt.band, err = readPassband(ff); err != nil {
			exit.Log(fmt.Sprintf("%s: %v", opt.filter, err))
		}
	}
	return opt
}

// reads limb darkening fits (created by calclimbdark)
func readStore(cl *commandLine) *ldstore.Store {
	g, err := ldstore.ReadFile(cl.fnFit)
	if err != nil {
		exit.Log(fmt.Sprintf("%v\nUse command \"calclimbdark\" to create the fit file.", err))
	}
	s, err := ldstore.New(g)
	if err != nil {
		exit.Log(err)
	}
	return s
}

func printHelp() {
	fmt.Println(`
Pars computes the spectrum of a rotating star as seen at a number of
inclinations.  The star is flattened by rotation and gravity darkened.
Specific intensities come from limb darkening fits created by calclimbdark.
Output is one line per inclination and wavelength giving the light in
erg s⁻¹ Hz⁻¹ sr⁻¹.  With a filter, a line per inclination gives the light
through the filter, per Hz at its mean wavelength.

Config file keywords:
   headings
   noheadings
   bolometric
   nobolometric
   order=<nodes per panel>
   panels=<panels per segment>
   workers=<goroutines>
   filter=<file>          transmission curve, lines of nm and transmission
   av=<magnitudes>        extinction in V through the filter (default 0)
   rv=<R(V)>              extinction curve parameter (default 3.1)

For full documentation:
   go doc github.com/pars-astro/pars`)
}
