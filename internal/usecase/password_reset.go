package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
	"github.com/agrismart/agrismart-iam/internal/infra/security"
	"github.com/agrismart/agrismart-iam/internal/repository"
)

const (
	resetMailSubject = "AgriSmart - Password Reset Code"
	resetMailBody    = "Your AgriSmart password reset code is: %s\n\nThis code expires in 10 minutes."
)

// PasswordResetService drives the two-phase code-verified password reset.
type PasswordResetService struct {
	users  port.UserRepository
	store  port.VerificationStore
	mailer port.Mailer
	events port.EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService instance.
func NewPasswordResetService(
	users port.UserRepository,
	store port.VerificationStore,
	mailer port.Mailer,
	events port.EventPublisher,
	log *zap.Logger,
) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}

	return &PasswordResetService{
		users:  users,
		store:  store,
		mailer: mailer,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestCode emails a reset code to an existing account. A repeat
// request replaces the earlier code. Dispatch failure discards the
// pending code.
func (s *PasswordResetService) RequestCode(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetNoAccount
		}
		return fmt.Errorf("load user: %w", err)
	}

	code, err := s.store.PutReset(ctx, email)
	if err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	body := fmt.Sprintf(resetMailBody, code)
	if err := s.mailer.Send(ctx, email, resetMailSubject, body); err != nil {
		if delErr := s.store.DeleteReset(ctx, email); delErr != nil {
			s.log.Warn("discard reset code failed",
				zap.String("email", logger.MaskEmail(email)),
				zap.Error(delErr),
			)
		}
		return ErrEmailSendFailed
	}

	s.log.Info("reset code sent", zap.String("email", logger.MaskEmail(email)))
	return nil
}

// Confirm consumes the reset code and replaces the account password.
func (s *PasswordResetService) Confirm(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	if err := s.store.ConsumeReset(ctx, email, code); err != nil {
		switch {
		case errors.Is(err, port.ErrVerificationNotFound):
			return ErrResetCodeNotFound
		case errors.Is(err, port.ErrVerificationExpired):
			return ErrResetCodeExpired
		case errors.Is(err, port.ErrVerificationMismatch):
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("consume reset code: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetNoAccount
		}
		return fmt.Errorf("load user: %w", err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()

	if err := s.users.Save(ctx, *user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			Email:     user.Email,
			ChangedAt: s.now().UTC(),
			Method:    "reset",
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log.Warn("publish password change event failed",
				zap.String("email", logger.MaskEmail(email)),
				zap.Error(err),
			)
		}
	}

	s.log.Info("password reset", zap.String("email", logger.MaskEmail(email)))
	return nil
}
