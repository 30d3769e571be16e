package middleware

import (
	"log/slog"
	"net/http"
)

// SafeHandlerMiddleware converts handler panics into a 500 response. A
// panicking patch operation must never take the control API down with it.
func SafeHandlerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic recovered",
					slog.String("component", "control-api"),
					slog.String("path", r.URL.EscapedPath()),
					slog.Any("err", rec),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
