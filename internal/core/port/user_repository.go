package port

import (
	"context"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
)

// UserRepository abstracts persistence of user accounts.
// Every operation targets a single document and is independently atomic.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByFacebookID(ctx context.Context, facebookID string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts the user or updates it in place when the ID already
	// exists. A unique-email violation surfaces as repository.ErrDuplicateEmail.
	Save(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id string) error
	// ReassignRole moves every user holding fromRoleID onto toRoleID and
	// reports how many rows changed. Used by startup migrations.
	ReassignRole(ctx context.Context, fromRoleID, toRoleID string) (int64, error)
}
