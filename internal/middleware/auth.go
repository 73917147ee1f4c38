package middleware

import (
	"context"
	"net/http"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/httputil"
	"github.com/VJ-Laxmi/my-Shop/internal/identity"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
)

// Client-facing messages of the authentication gates.
const (
	MsgMissingAuthorization = "Missing authorization header"
	MsgUnauthorized         = "Unauthorized"
	MsgAdminRequired        = "Forbidden: Admin access required"
)

// AuthMiddleware verifies the caller's bearer token and stores the verified
// identity in the request context.
type AuthMiddleware struct {
	verifier  identity.Verifier
	logger    *logging.Logger
	responder *httputil.Responder
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier identity.Verifier, logger *logging.Logger, responder *httputil.Responder) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		logger:    logger,
		responder: responder,
	}
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.responder.Error(w, r, errors.MissingCredential(MsgMissingAuthorization))
			return
		}

		token := identity.BearerToken(authHeader)
		if token == "" {
			m.reject(w, r, errors.Unauthorized(MsgUnauthorized, nil))
			return
		}

		caller, err := m.verifier.Verify(r.Context(), token)
		if err != nil || caller == nil || caller.UserID == "" {
			m.reject(w, r, errors.Unauthorized(MsgUnauthorized, err))
			return
		}

		ctx := identity.WithIdentity(r.Context(), caller)
		ctx = logging.WithUserID(ctx, caller.UserID)

		m.logger.WithContext(ctx).Debug("Authentication successful")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err *errors.ServiceError) {
	m.logger.LogSecurityEvent(r.Context(), "authentication_failed", map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	})
	m.responder.Error(w, r, err)
}

// RoleGuard admits only callers whose stored role matches a required role.
// It must run after AuthMiddleware.
type RoleGuard struct {
	roles     identity.RoleStore
	role      string
	logger    *logging.Logger
	responder *httputil.Responder
}

// NewRoleGuard creates a guard requiring role.
func NewRoleGuard(roles identity.RoleStore, role string, logger *logging.Logger, responder *httputil.Responder) *RoleGuard {
	return &RoleGuard{
		roles:     roles,
		role:      role,
		logger:    logger,
		responder: responder,
	}
}

// Handler returns the middleware handler. A failed lookup and a role
// mismatch are reported identically.
func (g *RoleGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := identity.FromContext(r.Context())
		if !ok {
			g.responder.Error(w, r, errors.Unauthorized(MsgUnauthorized, nil))
			return
		}

		role, err := g.roles.GetRole(r.Context(), caller.UserID)
		if err != nil || role != g.role {
			fields := map[string]interface{}{
				"path":          r.URL.Path,
				"method":        r.Method,
				"required_role": g.role,
			}
			if err != nil {
				fields["lookup_error"] = err.Error()
			}
			g.logger.LogSecurityEvent(r.Context(), "authorization_denied", fields)
			g.responder.Error(w, r, errors.Forbidden(MsgAdminRequired, err))
			return
		}

		ctx := logging.WithRole(r.Context(), role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the verified caller id from context
func GetUserID(ctx context.Context) string {
	if caller, ok := identity.FromContext(ctx); ok {
		return caller.UserID
	}
	return ""
}
