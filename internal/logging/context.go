package logging

import (
	"context"
	"log/slog"

	"supportflow/internal/services"
)

// Structured log keys shared by every component.
const (
	FieldComponent     = "component"
	FieldTicketID      = "ticket_id"
	FieldWorkflowID    = "workflow_id"
	FieldStage         = "stage"
	FieldAbility       = "ability"
	FieldProvider      = "provider"
	FieldCorrelationID = "correlation_id"
	FieldError         = "error"

	// FieldEventType classifies a line for filtering (stage_visit, ability_call, ...).
	FieldEventType = "event_type"
	// FieldErrorHint is the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is what the customer or ticket loses because of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names a routing or ability-selection decision.
	FieldDecisionType = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.TicketIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTicketID, id))
	}
	if id, ok := services.WorkflowIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldWorkflowID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
