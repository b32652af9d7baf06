package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/config"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
)

// SMTPMailer delivers plain-text mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg config.MailSettings
	log *zap.Logger
}

// NewSMTPMailer constructs a mailer for the given relay settings.
func NewSMTPMailer(cfg config.MailSettings, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

// Send delivers a single message. The context deadline is not honored
// mid-transaction; net/smtp offers no cancellation hooks.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.log.Error("smtp send failed",
			zap.String("to", logger.MaskEmail(to)),
			zap.Error(err),
		)
		return fmt.Errorf("send mail: %w", err)
	}

	m.log.Info("mail sent",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
	)
	return nil
}

var _ port.Mailer = (*SMTPMailer)(nil)
