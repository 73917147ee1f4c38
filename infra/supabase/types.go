// Package supabase is a minimal Supabase client covering GoTrue user lookup,
// GoTrue admin operations and PostgREST table access.
//
// The service role key bypasses row level security and is only sent on
// admin and datastore requests; caller tokens are only sent on user lookups.
package supabase

import (
	"net/http"
	"time"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds Supabase client configuration.
type Config struct {
	// ProjectURL is the Supabase project URL (e.g., https://xxx.supabase.co)
	ProjectURL string

	// APIKey is sent as the apikey header on caller-token requests.
	APIKey string

	// ServiceRoleKey authorizes admin and datastore requests.
	ServiceRoleKey string

	// AllowedHosts restricts outbound requests (derived from ProjectURL if empty)
	AllowedHosts []string

	// Timeout bounds every outbound request.
	Timeout time.Duration

	// Breaker configures the circuit breaker shared by all requests.
	Breaker CircuitBreakerConfig

	// HTTPClient overrides the default client; its Timeout is ignored in
	// favour of Timeout.
	HTTPClient *http.Client

	// Observer, when set, is called after every outbound request.
	Observer func(operation string, duration time.Duration, err error)
}

// =============================================================================
// Auth Types
// =============================================================================

// User represents a Supabase auth user.
type User struct {
	ID               string                 `json:"id"`
	Aud              string                 `json:"aud"`
	Role             string                 `json:"role"`
	Email            string                 `json:"email"`
	EmailConfirmedAt *time.Time             `json:"email_confirmed_at,omitempty"`
	Phone            string                 `json:"phone,omitempty"`
	LastSignInAt     *time.Time             `json:"last_sign_in_at,omitempty"`
	AppMetadata      map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata     map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// =============================================================================
// Database Types
// =============================================================================

// OrderDirection for sorting.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// =============================================================================
// Error Types
// =============================================================================

// Error represents a Supabase API error.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"status_code"`
}

func (e *Error) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// NewError creates a new Supabase error.
func NewError(code, message string, statusCode int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// PostgREST returns this code when a single-object request matches zero or
// several rows.
const CodeSingleRowMismatch = "PGRST116"

// Common errors
var (
	ErrUnavailable = NewError("unavailable", "Identity provider unavailable", http.StatusServiceUnavailable)
	ErrTimeout     = NewError("timeout", "Identity provider request timed out", http.StatusGatewayTimeout)
	ErrNotFound    = NewError("not_found", "resource not found", http.StatusNotFound)
)
