package backburner

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startInstanceSpan opens the "backburner.instance" span bracketing one
// begin/end pair (see SPEC_FULL.md §4.10). Callers must call End on the
// returned span once the instance's flush finishes (possibly paused and
// resumed across several End calls — in that case the span is kept open
// until the pump truly drains).
func (b *Backburner) startInstanceSpan(ctx context.Context, corrID uuid.UUID) (context.Context, trace.Span) {
	return b.cfg.tracer.Start(ctx, "backburner.instance",
		trace.WithAttributes(attribute.String("correlation_id", corrID.String())))
}

// startWorkSpan opens a child span for one Run/Join invocation or queue
// item execution.
func (b *Backburner) startWorkSpan(ctx context.Context, name string, corrID uuid.UUID) (context.Context, trace.Span) {
	return b.cfg.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("correlation_id", corrID.String())))
}
