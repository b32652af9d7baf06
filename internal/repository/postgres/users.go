package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrismart/agrismart-iam/internal/core/domain"
	"github.com/agrismart/agrismart-iam/internal/core/port"
	"github.com/agrismart/agrismart-iam/internal/repository"
)

const uniqueViolationCode = "23505"

var userColumns = []string{
	"id",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"role_id",
	"organization",
	"status",
	"account_type",
	"facebook_id",
	"profile_picture_url",
	"is_client_approved",
	"last_login_at",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("iam.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("iam.users").
		Where(squirrel.Eq{"email": email}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByFacebookID retrieves a user by linked Facebook account identifier.
func (r *UserRepository) GetByFacebookID(ctx context.Context, facebookID string) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("iam.users").
		Where(squirrel.Eq{"facebook_id": facebookID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	return r.scanUser(r.exec.QueryRow(ctx, stmt, args...))
}

// ExistsByEmail reports whether a user row exists for the email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		From("iam.users").
		Where(squirrel.Eq{"email": email}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists user sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check user exists: %w", err)
	}

	return true, nil
}

// Save inserts the user or updates it in place when the ID already exists.
func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	var facebookID any
	if user.FacebookID != nil && *user.FacebookID != "" {
		facebookID = *user.FacebookID
	}

	query := r.builder.Insert("iam.users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.RoleID,
			user.Organization,
			string(user.NormalizedStatus()),
			string(user.AccountType),
			facebookID,
			user.ProfilePictureURL,
			user.IsClientApproved,
			user.LastLoginAt,
			user.CreatedAt,
			user.UpdatedAt,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role_id = EXCLUDED.role_id,
			organization = EXCLUDED.organization,
			status = EXCLUDED.status,
			account_type = EXCLUDED.account_type,
			facebook_id = EXCLUDED.facebook_id,
			profile_picture_url = EXCLUDED.profile_picture_url,
			is_client_approved = EXCLUDED.is_client_approved,
			last_login_at = EXCLUDED.last_login_at,
			updated_at = EXCLUDED.updated_at`)

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// ReassignRole moves every user holding fromRoleID onto toRoleID.
func (r *UserRepository) ReassignRole(ctx context.Context, fromRoleID, toRoleID string) (int64, error) {
	stmt, args, err := r.builder.
		Update("iam.users").
		Set("role_id", toRoleID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"role_id": fromRoleID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reassign role sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("reassign role: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Delete removes a user row by identifier.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete("iam.users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		status      string
		accountType string
		facebookID  sql.NullString
		lastLogin   *time.Time
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.RoleID,
		&user.Organization,
		&status,
		&accountType,
		&facebookID,
		&user.ProfilePictureURL,
		&user.IsClientApproved,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	user.Status = domain.AccountStatus(status)
	user.AccountType = domain.AccountOrigin(accountType)
	user.LastLoginAt = lastLogin
	if facebookID.Valid {
		val := facebookID.String
		user.FacebookID = &val
	}

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
