package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs auth.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"email":         logger.MaskEmail(event.Email),
		"role":          event.Role,
		"origin":        event.Origin,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("auth.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishUserLoggedIn logs auth.user.logged_in events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	payload := map[string]any{
		"email":     logger.MaskEmail(event.Email),
		"origin":    event.Origin,
		"logged_at": event.LoggedAt,
	}
	p.logEvent("auth.user.logged_in", event.UserID, event.LoggedAt, payload)
	return nil
}

// PublishPasswordChanged logs auth.user.password_changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"email":      logger.MaskEmail(event.Email),
		"changed_at": event.ChangedAt,
		"method":     event.Method,
	}
	p.logEvent("auth.user.password_changed", event.UserID, event.ChangedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
