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
	"github.com/agrismart/agrismart-iam/internal/repository"
)

// RoleService manages the fixed role vocabulary and startup seeding.
type RoleService struct {
	roles port.RoleRepository
	users port.UserRepository
	log   *zap.Logger
	now   func() time.Time
}

// NewRoleService constructs a RoleService instance.
func NewRoleService(roles port.RoleRepository, users port.UserRepository, log *zap.Logger) *RoleService {
	if log == nil {
		log = zap.NewNop()
	}

	return &RoleService{
		roles: roles,
		users: users,
		log:   log,
		now:   time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *RoleService) WithClock(now func() time.Time) *RoleService {
	s.now = now
	return s
}

// List returns all stored roles.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// GetByName resolves a role case-insensitively after normalization.
func (s *RoleService) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	role, err := s.roles.GetByName(ctx, domain.NormalizeRole(name))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("load role: %w", err)
	}
	return role, nil
}

// EnsureDefaults seeds the canonical role vocabulary and migrates the
// legacy buyer role onto VIEWER. Safe to run on every startup.
func (s *RoleService) EnsureDefaults(ctx context.Context) error {
	for _, seed := range domain.CanonicalRoles() {
		if _, err := s.roles.GetByName(ctx, seed.Name); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("check role %s: %w", seed.Name, err)
		}

		role := domain.Role{
			ID:          uuid.NewString(),
			Name:        seed.Name,
			Description: seed.Description,
			CreatedAt:   s.now().UTC(),
		}
		if err := s.roles.Save(ctx, role); err != nil {
			return fmt.Errorf("seed role %s: %w", seed.Name, err)
		}
		s.log.Info("seeded role", zap.String("role", seed.Name))
	}

	return s.migrateLegacyBuyer(ctx)
}

// migrateLegacyBuyer repoints accounts holding the retired buyer role at
// VIEWER and removes the buyer role itself.
func (s *RoleService) migrateLegacyBuyer(ctx context.Context) error {
	buyer, err := s.roles.GetByName(ctx, domain.LegacyRoleBuyer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("check legacy role: %w", err)
	}

	viewer, err := s.roles.GetByName(ctx, domain.RoleViewer)
	if err != nil {
		return fmt.Errorf("load viewer role: %w", err)
	}

	moved, err := s.users.ReassignRole(ctx, buyer.ID, viewer.ID)
	if err != nil {
		return fmt.Errorf("migrate buyer accounts: %w", err)
	}

	if err := s.roles.Delete(ctx, buyer.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("remove legacy role: %w", err)
	}

	s.log.Info("migrated legacy buyer role", zap.Int64("accounts", moved))
	return nil
}
