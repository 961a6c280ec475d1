package shipper

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan opens an adapter operation span named "<carrier>.<operation>".
func StartSpan(ctx context.Context, tracer trace.Tracer, carrier CarrierID, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, string(carrier)+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("shipper.carrier", string(carrier))),
	)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, UserMessage(err))
	}
	span.End()
}
