// Package httputil provides JSON response and request body helpers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
)

// ErrorResponse is the only failure shape clients ever see.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges a completed mutation.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes {"success": true} with status 200.
func WriteSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Responder converts errors into ErrorResponse bodies.
//
// By default every pipeline failure is reported as 400 and clients tell
// failures apart by message only. With StrictStatus the ServiceError's own
// status is used instead (401, 403, 400, 502). Rate limiting and internal
// failures keep their own status in both modes.
type Responder struct {
	StrictStatus bool
	Logger       *logging.Logger
}

// Error writes err to w.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Downstream(err.Error(), err)
	}

	status := rs.status(serviceErr)
	WriteJSON(w, status, ErrorResponse{Error: serviceErr.Message})

	if rs.Logger != nil {
		entry := rs.Logger.WithContext(r.Context()).WithFields(map[string]interface{}{
			"path":   r.URL.Path,
			"method": r.Method,
			"status": status,
			"code":   string(serviceErr.Code),
		})
		if serviceErr.Err != nil {
			entry = entry.WithError(serviceErr.Err)
		}
		if len(serviceErr.Details) > 0 {
			entry = entry.WithFields(serviceErr.Details)
		}
		entry.Warn(serviceErr.Message)
	}
}

func (rs *Responder) status(serviceErr *errors.ServiceError) int {
	switch serviceErr.Code {
	case errors.CodeRateLimited, errors.CodeInternal:
		return serviceErr.HTTPStatus
	}
	if rs.StrictStatus {
		return serviceErr.HTTPStatus
	}
	return http.StatusBadRequest
}
