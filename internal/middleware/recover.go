package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kseniabot/astro-backend/internal/services"
)

// Recoverer catches handler panics, logs them with a stack, fires a
// best-effort Telegram notification, and answers 500. The process itself
// stays up; only startup failures are fatal.
func Recoverer(notifier *services.Notifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", r.URL.Path).
					Msg("recovered from panic")

				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 7*time.Second)
					defer cancel()
					notifier.Notify(ctx, fmt.Sprintf("astro-backend panic on %s: %v", r.URL.Path, rec))
				}()

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Internal Server Error"}`))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
