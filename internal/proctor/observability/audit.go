// Package observability provides audit logging helpers for the proctor module.
package observability

import (
	"context"
	"log/slog"

	"mockview/internal/proctor/models"
	"mockview/internal/proctor/ports"
	"mockview/pkg/attrs"
	"mockview/pkg/requestcontext"
)

// LogAudit logs a session event and forwards it to the event publisher.
// Subject fields are read from attrList: session_id, interview_id, user_email,
// reason, points and remaining.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher ports.EventPublisher, event models.EventType, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}
	args := append(attrList, "event", string(event), "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}
	if publisher == nil {
		return
	}

	remaining, _ := attrs.ExtractInt(attrList, "remaining")
	points, _ := attrs.ExtractInt(attrList, "points")
	err := publisher.Publish(ctx, models.Event{
		Type:        event,
		SessionID:   attrs.ExtractString(attrList, "session_id"),
		InterviewID: attrs.ExtractString(attrList, "interview_id"),
		UserEmail:   attrs.ExtractString(attrList, "user_email"),
		Reason:      attrs.ExtractString(attrList, "reason"),
		Points:      points,
		Remaining:   remaining,
		Timestamp:   requestcontext.Now(ctx),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to publish session event", "event", string(event), "error", err)
	}
}
