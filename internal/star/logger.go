// Public domain.

package star

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards all records.  Enabled returns false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger sets the logger used by the package.  By default nothing is
// logged.  Pass nil to restore the default.  Debug level reports per star
// and per inclination work.  Warn level reports, once per wavelength, the
// number of surface nodes where a fit went negative and was clamped.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

func logger() *slog.Logger { return loggerPtr.Load() }
