package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/repository"
)

var roleColumns = []string{"id", "name", "description", "created_at"}

// RoleRepository implements port.RoleRepository using PostgreSQL.
type RoleRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRoleRepository constructs a PostgreSQL-backed role repository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a role by identifier.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From("iam.roles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role sql: %w", err)
	}

	return r.scanRole(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByName resolves a role by name, case-insensitively.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From("iam.roles").
		Where(squirrel.Expr("UPPER(name) = UPPER(?)", name)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role sql: %w", err)
	}

	return r.scanRole(r.exec.QueryRow(ctx, stmt, args...))
}

// Save inserts the role or updates its description in place.
func (r *RoleRepository) Save(ctx context.Context, role domain.Role) error {
	stmt, args, err := r.builder.Insert("iam.roles").
		Columns(roleColumns...).
		Values(role.ID, role.Name, role.Description, role.CreatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert role sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}

	return nil
}

// Delete removes a role row by identifier.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("iam.roles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete role sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all roles in creation order.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From("iam.roles").
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

func (r *RoleRepository) scanRole(row pgx.Row) (*domain.Role, error) {
	var role domain.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}

	return &role, nil
}

var _ port.RoleRepository = (*RoleRepository)(nil)
