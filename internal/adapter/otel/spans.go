package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "toolweaver"

// StartPipelineSpan starts a span for a pipeline run.
func StartPipelineSpan(ctx context.Context, pipeline string, steps int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline",
		trace.WithAttributes(
			attribute.String("pipeline.name", pipeline),
			attribute.Int("pipeline.steps", steps),
		),
	)
}

// StartToolCallSpan starts a span for a single tool invocation.
func StartToolCallSpan(ctx context.Context, toolID, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.tool", toolID),
			attribute.String("toolcall.action", action),
		),
	)
}
