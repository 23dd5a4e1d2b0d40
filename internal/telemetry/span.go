package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceRequest starts a span for one outbound or inbound JSON-RPC call.
// The caller must call span.End() when the call completes.
func TraceRequest(ctx context.Context, direction, method string) (context.Context, trace.Span) {
	tracer := Tracer()
	ctx, span := tracer.Start(ctx, "acp."+method, trace.WithSpanKind(spanKind(direction)))
	span.SetAttributes(
		attribute.String("acp.direction", direction),
		attribute.String("acp.method", method),
	)
	return ctx, span
}

func spanKind(direction string) trace.SpanKind {
	if direction == "outbound" {
		return trace.SpanKindClient
	}
	return trace.SpanKindServer
}
