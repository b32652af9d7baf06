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

// Profile pairs a user with the resolved canonical role name.
type Profile struct {
	User domain.User
	Role string
}

// UserService covers profile access and authenticated password changes.
type UserService struct {
	users  port.UserRepository
	roles  port.RoleRepository
	events port.EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(users port.UserRepository, roles port.RoleRepository, events port.EventPublisher, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}

	return &UserService{
		users:  users,
		roles:  roles,
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// GetProfile loads the account for the normalized email.
func (s *UserService) GetProfile(ctx context.Context, email string) (Profile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return Profile{}, ErrEmailRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Profile{}, ErrUserNotFound
		}
		return Profile{}, fmt.Errorf("load user: %w", err)
	}

	roleName := ""
	if user.RoleID != "" {
		role, err := s.roles.GetByID(ctx, user.RoleID)
		if err == nil {
			roleName = domain.NormalizeRole(role.Name)
		}
	}

	return Profile{User: *user, Role: roleName}, nil
}

// ChangePassword replaces the password after validating the current one.
func (s *UserService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidPassword
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
			Method:    "change",
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log.Warn("publish password change event failed",
				zap.String("email", logger.MaskEmail(email)),
				zap.Error(err),
			)
		}
	}

	return nil
}

// EnsureDefaultAdmin provisions the bootstrap administrator account when
// no account holds the configured email yet.
func (s *UserService) EnsureDefaultAdmin(ctx context.Context, email, password, adminRoleID string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin email: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := s.now().UTC()
	admin := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Admin",
		LastName:     "AgriSmart",
		RoleID:       adminRoleID,
		Status:       domain.AccountStatusActive,
		AccountType:  domain.AccountOriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Save(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("save admin: %w", err)
	}

	s.log.Info("seeded default admin", zap.String("email", logger.MaskEmail(email)))
	return nil
}
