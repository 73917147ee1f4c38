package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/VJ-Laxmi/my-Shop/internal/errors"
	"github.com/VJ-Laxmi/my-Shop/internal/httputil"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
)

// Recovery turns handler panics into a 500 response.
func Recovery(logger *logging.Logger, responder *httputil.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				logger.WithContext(r.Context()).WithError(err).
					WithField("stack", string(debug.Stack())).
					Error("Recovered from panic")
				responder.Error(w, r, errors.Internal("Internal server error", err))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
