package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hostpatch/hostpatch/internal/opt/shared/x/httpx"
)

// RateLimiterMiddleware applies a process-wide token bucket to the control
// API. Manual waiter runs and media proxy calls fan out into host requests,
// so a burst of API calls is amplified downstream.
type RateLimiterMiddleware struct {
	Limiter *rate.Limiter
}

func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Limiter.Allow() {
			httpx.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
