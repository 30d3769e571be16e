package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Chain composes middlewares so that the first one listed is the outermost
// wrapper around the final handler.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		wrapped := final
		for i := len(mws) - 1; i >= 0; i-- {
			wrapped = mws[i](wrapped)
		}
		return wrapped
	}
}
