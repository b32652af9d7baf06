package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaDDL creates the iam schema and tables. Statements are idempotent
// so the service can apply them unconditionally at startup.
const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS iam;

CREATE TABLE IF NOT EXISTS iam.roles (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS roles_name_uidx ON iam.roles (UPPER(name));

CREATE TABLE IF NOT EXISTS iam.users (
    id                  TEXT PRIMARY KEY,
    email               TEXT NOT NULL,
    password_hash       TEXT NOT NULL DEFAULT '',
    first_name          TEXT NOT NULL DEFAULT '',
    last_name           TEXT NOT NULL DEFAULT '',
    role_id             TEXT NOT NULL DEFAULT '',
    organization        TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'ACTIVE',
    account_type        TEXT NOT NULL DEFAULT 'LOCAL',
    facebook_id         TEXT,
    profile_picture_url TEXT NOT NULL DEFAULT '',
    is_client_approved  BOOLEAN NOT NULL DEFAULT FALSE,
    last_login_at       TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS users_email_uidx ON iam.users (email);
CREATE INDEX IF NOT EXISTS users_facebook_id_idx ON iam.users (facebook_id) WHERE facebook_id IS NOT NULL;
`

// ApplySchema creates the schema objects if they do not exist yet.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
