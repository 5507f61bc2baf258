package onboarding

import (
	"context"
	"log/slog"

	"onboarding/pkg/requestcontext"
)

// EventSink is the subset of Provider that receives process events.
type EventSink interface {
	ProcessEvent(ctx context.Context, event Event) error
}

// Emit logs the event and forwards it to sink. Delivery is best effort: a
// failure is logged and never surfaces to the caller.
func Emit(ctx context.Context, logger *slog.Logger, sink EventSink, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	attrs := []any{
		"event", string(event.Type),
		"log_type", "process_event",
		"process_id", event.ProcessID.String(),
		"status", event.Status,
	}
	if event.VerificationID != "" {
		attrs = append(attrs, "verification_id", event.VerificationID.String())
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	if logger != nil {
		logger.InfoContext(ctx, string(event.Type), attrs...)
	}
	if sink == nil {
		return
	}
	if err := sink.ProcessEvent(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to deliver process event", "event", string(event.Type), "error", err)
	}
}
