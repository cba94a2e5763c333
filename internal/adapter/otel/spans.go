package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "professor"

// StartTaskSpan starts the root span of a research pipeline run.
func StartTaskSpan(ctx context.Context, taskID, topic string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("task.topic", topic),
		),
	)
}

// StartStageSpan starts a span for one pipeline stage.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research."+stage,
		trace.WithAttributes(attribute.String("research.stage", stage)),
	)
}

// StartFetchSpan starts a span for fetching a single source.
func StartFetchSpan(ctx context.Context, url string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "research.fetch",
		trace.WithAttributes(attribute.String("source.url", url)),
	)
}
