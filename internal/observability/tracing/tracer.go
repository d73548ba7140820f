// Package tracing provides OpenTelemetry instrumentation: a shared tracer
// for span creation and HTTP middleware that propagates trace context.
package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the shared tracer for the claimcheck service.
var tracer = otel.Tracer("claimcheck")

// GetTracer returns the shared tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "verify.fanout")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
