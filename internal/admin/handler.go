package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/httputil"
	"github.com/VJ-Laxmi/my-Shop/internal/identity"
)

// DeleteUserRequest is the body of the delete-user function.
type DeleteUserRequest struct {
	UserID string `json:"userId"`
}

// SetRoleRequest is the body of a role update.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// ListUsersResponse is the body of the user directory listing.
type ListUsersResponse struct {
	Users []UserSummary `json:"users"`
}

// Handler exposes Service over HTTP. Every route expects the caller's
// identity in the request context.
type Handler struct {
	service   *Service
	responder *httputil.Responder
}

// NewHandler creates a new admin HTTP handler.
func NewHandler(service *Service, responder *httputil.Responder) *Handler {
	return &Handler{service: service, responder: responder}
}

// DeleteUser handles POST /functions/v1/delete-user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, errors.Unauthorized("Unauthorized", nil))
		return
	}

	var req DeleteUserRequest
	if err := httputil.DecodeJSONBody(r, &req); err != nil {
		h.responder.Error(w, r, errors.BadRequest(MsgInvalidBody))
		return
	}

	if err := h.service.DeleteAccount(r.Context(), caller, req.UserID); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httputil.WriteSuccess(w)
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListUsersResponse{Users: users})
}

// SetUserRole handles PUT /admin/users/{userId}/role.
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		h.responder.Error(w, r, errors.Unauthorized("Unauthorized", nil))
		return
	}

	var req SetRoleRequest
	if err := httputil.DecodeJSONBody(r, &req); err != nil {
		h.responder.Error(w, r, errors.BadRequest(MsgInvalidBody))
		return
	}

	if err := h.service.SetRole(r.Context(), caller, mux.Vars(r)["userId"], req.Role); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httputil.WriteSuccess(w)
}
