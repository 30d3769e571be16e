package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/hostpatch/hostpatch/internal/opt/shared/x/httpx"
)

// AuthMiddleware enforces bearer-token authorization on the control API.
// Tokens are compared in constant time.
type AuthMiddleware struct {
	Token string
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "missing bearer token",
			})
			return
		}
		if m.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.Token)) != 1 {
			httpx.WriteJSON(w, http.StatusForbidden, map[string]string{
				"error": "incorrect token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
