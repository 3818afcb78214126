// Package tracing wires OpenTelemetry into rendr: spans around fetch batches
// and remote calls, and gRPC interceptors for the remote service. Tracing is
// off unless a Config or TracerProvider is supplied.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/nagiek/rendr"

// Span names.
const (
	SpanFetch  = "rendr.fetch"
	SpanRemote = "rendr.remote"
)

// Config holds the OpenTelemetry wiring.
type Config struct {
	// TracerProvider supplies the Tracer. When nil the global provider is
	// used.
	TracerProvider trace.TracerProvider

	// Propagators moves trace context across gRPC metadata. When nil the
	// global propagator is used.
	Propagators propagation.TextMapPropagator
}

func (c *Config) tracer() trace.Tracer {
	return Tracer(c.TracerProvider)
}

func (c *Config) propagators() propagation.TextMapPropagator {
	if c.Propagators != nil {
		return c.Propagators
	}
	return otel.GetTextMapPropagator()
}

// Tracer returns rendr's tracer from tp, or from the global provider when tp
// is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}

// Noop returns a tracer that records nothing.
func Noop() trace.Tracer {
	return noop.NewTracerProvider().Tracer(instrumentationName)
}

// End sets the span status from err and ends the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
