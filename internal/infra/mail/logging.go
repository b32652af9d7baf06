package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
)

// LoggingMailer logs messages instead of sending them. Used when no SMTP
// relay is configured, typically in development.
type LoggingMailer struct {
	log *zap.Logger
}

// NewLoggingMailer constructs a development-friendly mailer.
func NewLoggingMailer(log *zap.Logger) *LoggingMailer {
	return &LoggingMailer{log: log}
}

func (m *LoggingMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info("mail delivery skipped, logging instead",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

var _ port.Mailer = (*LoggingMailer)(nil)
