package logging

import (
	"context"

	"go.uber.org/zap"
)

// LogAuditEvent logs a structured audit record.
//
// actor is the caller (client IP or admin UID), resourceType names what was
// touched ("subscriber", "campaign") and result is "success" or "failure".
func LogAuditEvent(
	ctx context.Context,
	action, actor, resourceType, resourceID, result string,
	details map[string]any,
) {
	LoggerFromContext(ctx).Info("Audit event",
		zap.String("audit.action", action),
		zap.String("audit.actor", actor),
		zap.String("audit.resource_type", resourceType),
		zap.String("audit.resource_id", resourceID),
		zap.String("audit.result", result),
		zap.Any("audit.details", details),
	)
}
