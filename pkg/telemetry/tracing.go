package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName is the tracer name used when none is configured.
const DefaultTracerName = "domsync"

// SpanPatch is the name of the span covering one transaction.
const SpanPatch = "domsync.patch"

// Tracer returns a tracer from the global OpenTelemetry provider. Configure
// the provider in main() before applying transactions; without one the
// tracer is a no-op.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = DefaultTracerName
	}
	return otel.Tracer(name)
}

// TransactionShape describes a transaction for span attributes.
type TransactionShape struct {
	Patches int
	Removes int
	Events  int
}

// StartPatch starts the span for one transaction.
func StartPatch(ctx context.Context, tracer trace.Tracer, shape TransactionShape) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer("")
	}
	return tracer.Start(ctx, SpanPatch,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("domsync.patches", shape.Patches),
			attribute.Int("domsync.removes", shape.Removes),
			attribute.Int("domsync.events", shape.Events),
		),
	)
}

// EndSpan records err on span (if any) and ends it.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
