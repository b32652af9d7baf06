package port

import (
	"context"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
)

// RoleRepository abstracts persistence of role records.
type RoleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	// GetByName resolves a role by name, case-insensitively.
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	Save(ctx context.Context, role domain.Role) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Role, error)
}
