// Package middleware provides HTTP middleware for the admin gateway
package middleware

import (
	"net/http"
)

const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
)

// CORSMiddleware answers preflight requests and tags every response with the
// permissive CORS headers browser clients expect from Supabase functions.
type CORSMiddleware struct {
	allowOrigin  string
	allowHeaders string
}

// NewCORSMiddleware creates a new CORS middleware
func NewCORSMiddleware() *CORSMiddleware {
	return &CORSMiddleware{
		allowOrigin:  corsAllowOrigin,
		allowHeaders: corsAllowHeaders,
	}
}

// Handler returns the CORS middleware handler. It must wrap every other
// middleware so that preflight requests never reach authentication.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", m.allowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", m.allowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", "X-Trace-ID")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
