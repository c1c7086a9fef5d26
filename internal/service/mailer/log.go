package mailer

import (
	"context"

	"go.uber.org/zap"

	applog "github.com/janisto/subscriber-pipeline/internal/platform/logging"
)

// LogMailer writes messages to the log instead of sending them. Used for
// local development.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	applog.LogInfo(ctx, "email suppressed",
		zap.String("to", applog.RedactEmail(msg.ToEmail)),
		zap.String("subject", msg.Subject),
		zap.Int("bytes", len(msg.Document())),
	)
	return nil
}

// Compile-time interface check
var _ Mailer = LogMailer{}
