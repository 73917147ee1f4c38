package httputil

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec)

	if rec.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true}` {
		t.Errorf("Body = %s, want {\"success\":true}", got)
	}
}

func TestResponder_DefaultCollapsesTo400(t *testing.T) {
	rs := &Responder{Logger: logging.NewWithOutput("test", "debug", "json", &bytes.Buffer{})}

	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"missing credential", errors.MissingCredential("Missing authorization header"), "Missing authorization header"},
		{"unauthorized", errors.Unauthorized("Unauthorized", nil), "Unauthorized"},
		{"forbidden", errors.Forbidden("Forbidden: Admin access required", nil), "Forbidden: Admin access required"},
		{"bad request", errors.BadRequest("Cannot delete your own account"), "Cannot delete your own account"},
		{"downstream", errors.Downstream("User not found", stderrors.New("404")), "User not found"},
		{"plain error", stderrors.New("something broke"), "something broke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/functions/v1/delete-user", nil)
			rec := httptest.NewRecorder()

			rs.Error(rec, req, tt.err)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want 400", rec.Code)
			}
			if got := decodeError(t, rec); got != tt.msg {
				t.Errorf("error = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestResponder_StrictStatus(t *testing.T) {
	rs := &Responder{StrictStatus: true}

	tests := []struct {
		err    error
		status int
	}{
		{errors.MissingCredential("m"), http.StatusUnauthorized},
		{errors.Unauthorized("u", nil), http.StatusUnauthorized},
		{errors.Forbidden("f", nil), http.StatusForbidden},
		{errors.BadRequest("b"), http.StatusBadRequest},
		{errors.Downstream("d", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		rs.Error(rec, req, tt.err)
		if rec.Code != tt.status {
			t.Errorf("%v: Status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}

func TestResponder_KeepsRateLimitAndInternalStatus(t *testing.T) {
	rs := &Responder{}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	rs.Error(rec, req, errors.RateLimitExceeded(5, "1s"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", rec.Code)
	}

	rec = httptest.NewRecorder()
	rs.Error(rec, req, errors.Internal("Internal server error", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", rec.Code)
	}
}
