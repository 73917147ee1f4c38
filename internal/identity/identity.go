// Package identity resolves who a caller is and what they may do.
//
// Verifiers turn a bearer token into an Identity, role stores answer which
// role a user holds, and AccountAdmin performs privileged account removal
// with the server-held service role key.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold in user_roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	// ErrNoRole is returned when a user has no role assignment.
	ErrNoRole = errors.New("no role assignment")
	// ErrAmbiguousRole is returned when a user has several role assignments.
	ErrAmbiguousRole = errors.New("multiple role assignments")
	// ErrAssignmentNotFound is returned by SetRole when nothing was updated.
	ErrAssignmentNotFound = errors.New("role assignment not found")
	// ErrInvalidInput is returned for empty identifiers.
	ErrInvalidInput = errors.New("invalid input")
)

// Identity is a verified caller.
type Identity struct {
	UserID   string
	Email    string
	Audience string
	Role     string
}

// Verifier exchanges a bearer token for a verified identity. Implementations
// never persist or refresh session state.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// RoleStore looks up the application role of a user.
type RoleStore interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

// AccountAdmin removes user accounts.
type AccountAdmin interface {
	DeleteAccount(ctx context.Context, userID string) error
}

// RoleAssignment is one row of user_roles.
type RoleAssignment struct {
	UserID string `json:"user_id" db:"user_id"`
	Role   string `json:"role" db:"role"`
}

// RoleDirectory lists and changes role assignments.
type RoleDirectory interface {
	RoleStore
	ListAssignments(ctx context.Context) ([]RoleAssignment, error)
	SetRole(ctx context.Context, userID, role string) error
}

// Profile is one row of profiles.
type Profile struct {
	UserID    string     `json:"user_id" db:"user_id"`
	Email     string     `json:"email" db:"email"`
	FullName  *string    `json:"full_name" db:"full_name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastLogin *time.Time `json:"last_login" db:"last_login"`
}

// ProfileSource lists user profiles, newest first.
type ProfileSource interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
}

// ValidRole reports whether role can be assigned.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// BearerToken strips an optional case-insensitive "Bearer " prefix from an
// Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	const prefix = "bearer"
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return header
	}
	rest := header[len(prefix):]
	if rest == "" {
		return ""
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return header
	}
	return strings.TrimSpace(rest)
}

type contextKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(*Identity)
	return id, ok && id != nil
}

// SameUser reports whether a and b name the same user. Ids that parse as
// UUIDs are compared by value, so case and hyphenation do not matter;
// anything else must match exactly.
func SameUser(a, b string) bool {
	ua, errA := uuid.Parse(strings.TrimSpace(a))
	ub, errB := uuid.Parse(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		return ua == ub
	}
	return a == b
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	return nil
}
