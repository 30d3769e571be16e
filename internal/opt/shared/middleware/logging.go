package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// LoggingMiddleware logs each request with its status and duration when
// Verbose is set; otherwise requests pass through untouched.
type LoggingMiddleware struct {
	Logger  *slog.Logger
	Verbose bool
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	rec.status = code
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(code)
}

func (m *LoggingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Verbose {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.Logger.Debug("HTTP request",
			slog.Int("status", rec.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.EscapedPath()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
