package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "letterdesk"

// StartPanelSpan starts a span for one full panel run.
func StartPanelSpan(ctx context.Context, requestID, letterType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "panel.run",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("letter.type", letterType),
		),
	)
}

// StartPersonaSpan starts a span for one persona invocation within a run.
func StartPersonaSpan(ctx context.Context, agent string, round int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "panel.persona",
		trace.WithAttributes(
			attribute.String("persona.name", agent),
			attribute.Int("panel.round", round),
		),
	)
}
