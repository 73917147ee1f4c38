package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VJ-Laxmi/my-Shop/infra/supabase"
)

const (
	userRolesTable = "user_roles"
	profilesTable  = "profiles"
)

// SupabaseVerifier verifies tokens against GoTrue's /user endpoint.
type SupabaseVerifier struct {
	auth *supabase.AuthClient
}

// NewSupabaseVerifier creates a verifier backed by client.
func NewSupabaseVerifier(client *supabase.Client) *SupabaseVerifier {
	return &SupabaseVerifier{auth: client.Auth()}
}

// Verify resolves the user owning token.
func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	user, err := v.auth.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Audience: user.Aud,
		Role:     user.Role,
	}, nil
}

// SupabaseRoleStore reads and writes user_roles through PostgREST with the
// service role key.
type SupabaseRoleStore struct {
	db *supabase.DatabaseClient
}

// NewSupabaseRoleStore creates a role store backed by client.
func NewSupabaseRoleStore(client *supabase.Client) *SupabaseRoleStore {
	return &SupabaseRoleStore{db: client.Database()}
}

// GetRole returns the single role assigned to userID. Zero or several
// assignments are errors.
func (s *SupabaseRoleStore) GetRole(ctx context.Context, userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}

	var row RoleAssignment
	err := s.db.From(userRolesTable).
		Select("role").
		Eq("user_id", userID).
		Limit(2).
		Single().
		ExecuteInto(ctx, &row)
	if err != nil {
		return "", singleRowError(err)
	}
	return row.Role, nil
}

// ListAssignments returns every role assignment.
func (s *SupabaseRoleStore) ListAssignments(ctx context.Context) ([]RoleAssignment, error) {
	var rows []RoleAssignment
	if err := s.db.From(userRolesTable).Select("user_id,role").ExecuteInto(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SetRole changes the role of an existing assignment.
func (s *SupabaseRoleStore) SetRole(ctx context.Context, userID, role string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if !ValidRole(role) {
		return fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}

	var rows []RoleAssignment
	err := s.db.From(userRolesTable).
		Update(map[string]string{"role": role}).
		Select("user_id,role").
		Eq("user_id", userID).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

// ListProfiles returns profiles ordered by creation time, newest first.
func (s *SupabaseRoleStore) ListProfiles(ctx context.Context) ([]Profile, error) {
	var rows []Profile
	err := s.db.From(profilesTable).
		Select("user_id,email,full_name,created_at,last_login").
		Order("created_at", supabase.OrderDesc).
		ExecuteInto(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func singleRowError(err error) error {
	var apiErr *supabase.Error
	if !errors.As(err, &apiErr) || apiErr.Code != supabase.CodeSingleRowMismatch {
		return err
	}
	if strings.Contains(apiErr.Details, " 0 rows") {
		return fmt.Errorf("%w: %v", ErrNoRole, err)
	}
	return fmt.Errorf("%w: %v", ErrAmbiguousRole, err)
}

// SupabaseAccountAdmin deletes users through the GoTrue admin API.
type SupabaseAccountAdmin struct {
	auth *supabase.AuthClient
}

// NewSupabaseAccountAdmin creates an account admin backed by client.
func NewSupabaseAccountAdmin(client *supabase.Client) *SupabaseAccountAdmin {
	return &SupabaseAccountAdmin{auth: client.Auth()}
}

// DeleteAccount permanently deletes userID. Provider errors are returned
// unchanged so their message can be surfaced.
func (a *SupabaseAccountAdmin) DeleteAccount(ctx context.Context, userID string) error {
	return a.auth.AdminDeleteUser(ctx, userID)
}
