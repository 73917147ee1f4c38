package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresRoleStore reads public.user_roles and public.profiles directly.
// The connection must use a role that bypasses row level security.
type PostgresRoleStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenPostgresRoleStore connects to databaseURL. Every query is bounded by
// timeout; zero leaves queries bounded only by the caller's context.
func OpenPostgresRoleStore(ctx context.Context, databaseURL string, timeout time.Duration) (*PostgresRoleStore, error) {
	connectCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	db, err := sqlx.ConnectContext(connectCtx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect role store: %w", err)
	}
	return NewPostgresRoleStore(db, timeout), nil
}

// NewPostgresRoleStore wraps an open database handle.
func NewPostgresRoleStore(db *sqlx.DB, timeout time.Duration) *PostgresRoleStore {
	return &PostgresRoleStore{db: db, timeout: timeout}
}

func (s *PostgresRoleStore) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// queryError wraps err for op. A query cut off by the store deadline is
// reported as context.DeadlineExceeded whatever the driver returned.
func queryError(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DB returns the underlying database handle.
func (s *PostgresRoleStore) DB() *sql.DB {
	return s.db.DB
}

// Close closes the underlying database handle.
func (s *PostgresRoleStore) Close() error {
	return s.db.Close()
}

// GetRole returns the single role assigned to userID.
func (s *PostgresRoleStore) GetRole(ctx context.Context, userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var roles []string
	err := s.db.SelectContext(ctx, &roles,
		`SELECT role FROM public.user_roles WHERE user_id = $1 LIMIT 2`, userID)
	if err != nil {
		return "", queryError(ctx, "query role", err)
	}

	switch len(roles) {
	case 0:
		return "", ErrNoRole
	case 1:
		return roles[0], nil
	default:
		return "", ErrAmbiguousRole
	}
}

// ListAssignments returns every role assignment.
func (s *PostgresRoleStore) ListAssignments(ctx context.Context) ([]RoleAssignment, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var rows []RoleAssignment
	err := s.db.SelectContext(ctx, &rows, `SELECT user_id, role FROM public.user_roles`)
	if err != nil {
		return nil, queryError(ctx, "list role assignments", err)
	}
	return rows, nil
}

// SetRole changes the role of an existing assignment.
func (s *PostgresRoleStore) SetRole(ctx context.Context, userID, role string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if !ValidRole(role) {
		return fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE public.user_roles SET role = $1 WHERE user_id = $2`, role, userID)
	if err != nil {
		return queryError(ctx, "update role", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ListProfiles returns profiles ordered by creation time, newest first.
func (s *PostgresRoleStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var rows []Profile
	err := s.db.SelectContext(ctx, &rows,
		`SELECT user_id, email, full_name, created_at, last_login
		   FROM public.profiles
		  ORDER BY created_at DESC`)
	if err != nil {
		return nil, queryError(ctx, "list profiles", err)
	}
	return rows, nil
}
