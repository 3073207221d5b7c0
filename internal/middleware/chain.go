package middleware

import "net/http"

// Middleware wraps a handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware so the first one listed runs first.
//
// Example:
//
//	handler := Chain(mux,
//	    Recover,              // Outermost, catches panics from everything below
//	    AuthMiddleware(auth), // Resolves X-Token
//	    RequestLogging,       // Sees the route pattern set by mux
//	)
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
