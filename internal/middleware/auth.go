package middleware

import (
	"crypto/subtle"
	"net/http"
)

// TokenHeader carries the shared secret the n8n workflow must send.
const TokenHeader = "X-N8N-Token"

// RequireToken rejects requests whose shared-secret header does not match.
// A missing server-side secret is a configuration error (500), not an auth
// failure, so a bad deploy never silently opens the API.
func RequireToken(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"N8N_TOKEN is not configured"}`))
				return
			}

			provided := r.Header.Get(TokenHeader)
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
