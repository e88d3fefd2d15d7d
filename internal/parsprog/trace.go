// Public domain.

package parsprog

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/pars-astro/pars/internal/parsprog"

// initTracing installs a tracer provider exporting spans to w, or a no-op
// provider if w is nil.  The returned function flushes and stops it.
func initTracing(w io.Writer) (trace.Tracer, func(context.Context) error, error) {
	if w == nil {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp.Tracer(tracerName), func(context.Context) error { return nil }, nil
	}
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "pars"),
			attribute.String("service.version", versionString),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Tracer(tracerName), tp.Shutdown, nil
}

func shutdownTracing(shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return shutdown(ctx)
}
