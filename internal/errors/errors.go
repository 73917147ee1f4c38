// Package errors provides the service error type shared by the gateway.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure category.
type ErrorCode string

const (
	CodeMissingCredential ErrorCode = "missing_credential"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeForbidden         ErrorCode = "forbidden"
	CodeBadRequest        ErrorCode = "bad_request"
	CodeDownstream        ErrorCode = "downstream_failure"
	CodeRateLimited       ErrorCode = "rate_limited"
	CodeInternal          ErrorCode = "internal"
)

// ServiceError is an error with a client-safe message and a category.
// Err carries the underlying cause for logging and is never sent to clients.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a detail entry and returns the same error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// MissingCredential reports a request without an Authorization header.
func MissingCredential(message string) *ServiceError {
	return newError(CodeMissingCredential, http.StatusUnauthorized, message, nil)
}

// Unauthorized reports a credential the identity provider rejected.
func Unauthorized(message string, err error) *ServiceError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, err)
}

// Forbidden reports an authenticated caller without the required role.
func Forbidden(message string, err error) *ServiceError {
	return newError(CodeForbidden, http.StatusForbidden, message, err)
}

// BadRequest reports invalid input.
func BadRequest(message string) *ServiceError {
	return newError(CodeBadRequest, http.StatusBadRequest, message, nil)
}

// Downstream reports a failed call to an external system. The message is
// what the client sees, so callers pass the provider's own message.
func Downstream(message string, err error) *ServiceError {
	return newError(CodeDownstream, http.StatusBadGateway, message, err)
}

// RateLimitExceeded reports a throttled client.
func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(CodeRateLimited, http.StatusTooManyRequests, "Too many requests", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// Internal reports an unexpected failure.
func Internal(message string, err error) *ServiceError {
	return newError(CodeInternal, http.StatusInternalServerError, message, err)
}

// GetServiceError returns the first ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if stderrors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// Is reports whether err carries a ServiceError with the given code.
func Is(err error, code ErrorCode) bool {
	serviceErr := GetServiceError(err)
	return serviceErr != nil && serviceErr.Code == code
}
