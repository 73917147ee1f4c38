package middleware

import (
	"net/http"
	"time"

	"github.com/VJ-Laxmi/my-Shop/internal/logging"
)

const maxTraceIDLength = 128

// traceHeaders are checked in order for a caller-supplied trace id. The
// Supabase JS client forwards X-Request-ID; internal callers use X-Trace-ID.
var traceHeaders = []string{"X-Trace-ID", "X-Request-ID"}

// TracingMiddleware tags each request with a trace id and logs its outcome.
type TracingMiddleware struct {
	logger *logging.Logger
}

func NewTracingMiddleware(logger *logging.Logger) *TracingMiddleware {
	return &TracingMiddleware{logger: logger}
}

func (m *TracingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := incomingTraceID(r)
		if traceID == "" {
			traceID = logging.NewTraceID()
		}

		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-ID", traceID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r.WithContext(ctx))

		m.logger.LogRequest(ctx, r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

// incomingTraceID returns the first usable caller-supplied id. Ids that are
// too long or contain anything outside [A-Za-z0-9._:-] are ignored so they
// cannot forge log fields or response headers.
func incomingTraceID(r *http.Request) string {
	for _, h := range traceHeaders {
		if id := r.Header.Get(h); validTraceID(id) {
			return id
		}
	}
	return ""
}

func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}
