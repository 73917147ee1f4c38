// Package migrations creates the storefront tables the direct Postgres role
// store reads. Every statement is idempotent.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`DO $$ BEGIN
		CREATE TYPE public.app_role AS ENUM ('admin', 'user');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS public.profiles (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    uuid NOT NULL UNIQUE REFERENCES auth.users (id) ON DELETE CASCADE,
		email      text NOT NULL,
		full_name  text,
		created_at timestamptz NOT NULL DEFAULT now(),
		last_login timestamptz
	)`,

	`CREATE TABLE IF NOT EXISTS public.user_roles (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    uuid NOT NULL REFERENCES auth.users (id) ON DELETE CASCADE,
		role       public.app_role NOT NULL DEFAULT 'user',
		created_at timestamptz NOT NULL DEFAULT now(),
		UNIQUE (user_id, role)
	)`,

	`CREATE INDEX IF NOT EXISTS user_roles_user_id_idx ON public.user_roles (user_id)`,

	`CREATE INDEX IF NOT EXISTS profiles_created_at_idx ON public.profiles (created_at DESC)`,
}

// Count is the number of statements Apply executes.
func Count() int {
	return len(statements)
}

// Apply executes the schema statements in order and stops at the first error.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
