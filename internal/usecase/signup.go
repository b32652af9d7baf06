package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/infra/logger"
)

const (
	signupMailSubject = "AgriSmart - Email Verification Code"
	signupMailBody    = "Your AgriSmart verification code is: %s\n\nThis code expires in 10 minutes."
)

// SignupService drives the two-phase email-verified registration flow.
// Phase one stashes the registration and mails a one-time code; phase two
// consumes the code and creates the account through AuthService.
type SignupService struct {
	auth   *AuthService
	users  port.UserRepository
	store  port.VerificationStore
	mailer port.Mailer
	log    *zap.Logger
}

// NewSignupService constructs a SignupService instance.
func NewSignupService(
	auth *AuthService,
	users port.UserRepository,
	store port.VerificationStore,
	mailer port.Mailer,
	log *zap.Logger,
) *SignupService {
	if log == nil {
		log = zap.NewNop()
	}

	return &SignupService{
		auth:   auth,
		users:  users,
		store:  store,
		mailer: mailer,
		log:    log,
	}
}

// RequestCode stores the pending registration and emails a fresh code.
// A repeat request for the same email replaces the earlier entry and
// invalidates its code. When the email cannot be dispatched the pending
// entry is discarded so no unverifiable registration lingers.
func (s *SignupService) RequestCode(ctx context.Context, req domain.SignupRequest) error {
	req.Email = domain.NormalizeEmail(req.Email)
	if req.Email == "" {
		return ErrEmailRequired
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}

	code, err := s.store.PutSignup(ctx, req.Email, req)
	if err != nil {
		return fmt.Errorf("store pending signup: %w", err)
	}

	body := fmt.Sprintf(signupMailBody, code)
	if err := s.mailer.Send(ctx, req.Email, signupMailSubject, body); err != nil {
		if delErr := s.store.DeleteSignup(ctx, req.Email); delErr != nil {
			s.log.Warn("discard pending signup failed",
				zap.String("email", logger.MaskEmail(req.Email)),
				zap.Error(delErr),
			)
		}
		return ErrEmailSendFailed
	}

	s.log.Info("signup code sent", zap.String("email", logger.MaskEmail(req.Email)))
	return nil
}

// VerifyCode consumes the one-time code and creates the account. The
// email-free check reruns here because an account may have appeared
// through another path while the code was in flight.
func (s *SignupService) VerifyCode(ctx context.Context, email, code string) (AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return AuthResult{}, ErrEmailRequired
	}

	req, err := s.store.ConsumeSignup(ctx, email, code)
	if err != nil {
		switch {
		case errors.Is(err, port.ErrVerificationNotFound):
			return AuthResult{}, ErrSignupCodeNotFound
		case errors.Is(err, port.ErrVerificationExpired):
			return AuthResult{}, ErrSignupCodeExpired
		case errors.Is(err, port.ErrVerificationMismatch):
			return AuthResult{}, ErrSignupCodeInvalid
		}
		return AuthResult{}, fmt.Errorf("consume signup code: %w", err)
	}

	result, err := s.auth.Register(ctx, req)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info("signup completed", zap.String("email", logger.MaskEmail(email)))
	return result, nil
}
