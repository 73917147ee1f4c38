// Package gateway assembles the HTTP surface of the admin gateway.
package gateway

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/VJ-Laxmi/my-Shop/internal/admin"
	"github.com/VJ-Laxmi/my-Shop/internal/httputil"
	"github.com/VJ-Laxmi/my-Shop/internal/identity"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
	"github.com/VJ-Laxmi/my-Shop/internal/metrics"
	"github.com/VJ-Laxmi/my-Shop/internal/middleware"
)

// ServiceName labels logs and metrics.
const ServiceName = "admin-gateway"

// Deps are the collaborators the router wires together.
type Deps struct {
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
	Responder *httputil.Responder

	Verifier  identity.Verifier
	Roles     identity.RoleDirectory
	Profiles  identity.ProfileSource
	Accounts  identity.AccountAdmin
	AdminRole string

	// RateLimiter is optional; nil disables throttling.
	RateLimiter *middleware.RateLimiter

	// UpstreamState reports the identity provider circuit state for /health.
	UpstreamState func() string
}

// NewRouter returns the gateway handler.
//
// CORS wraps everything so preflight requests are answered before any other
// processing. Admin routes then pass through throttling, token verification
// and the admin role check, in that order, before reaching a handler.
func NewRouter(d Deps) http.Handler {
	if d.AdminRole == "" {
		d.AdminRole = identity.RoleAdmin
	}

	service := admin.NewService(d.Accounts, d.Roles, d.Profiles, d.Metrics, d.Logger)
	handler := admin.NewHandler(service, d.Responder)

	router := mux.NewRouter()
	if d.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(ServiceName, d.Metrics))
		router.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/health", healthHandler(d.UpstreamState)).Methods(http.MethodGet)

	guarded := []mux.MiddlewareFunc{}
	if d.RateLimiter != nil {
		guarded = append(guarded, d.RateLimiter.Handler)
	}
	guarded = append(guarded,
		middleware.NewAuthMiddleware(d.Verifier, d.Logger, d.Responder).Handler,
		middleware.NewRoleGuard(d.Roles, d.AdminRole, d.Logger, d.Responder).Handler,
	)

	functions := router.PathPrefix("/functions/v1").Subrouter()
	functions.Use(guarded...)
	functions.HandleFunc("/delete-user", handler.DeleteUser).Methods(http.MethodPost)

	admins := router.PathPrefix("/admin").Subrouter()
	admins.Use(guarded...)
	admins.HandleFunc("/users", handler.ListUsers).Methods(http.MethodGet)
	admins.HandleFunc("/users/{userId}/role", handler.SetUserRole).Methods(http.MethodPut)

	var h http.Handler = router
	h = middleware.Recovery(d.Logger, d.Responder)(h)
	h = middleware.NewTracingMiddleware(d.Logger).Handler(h)
	h = middleware.NewCORSMiddleware().Handler(h)
	return h
}

type healthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Upstream string `json:"upstream,omitempty"`
}

func healthHandler(upstreamState func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Service: ServiceName}
		if upstreamState != nil {
			resp.Upstream = upstreamState()
			if resp.Upstream == "open" {
				resp.Status = "degraded"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
