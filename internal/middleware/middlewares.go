package middleware

import (
	"github.com/deppfellow/bookshelf/internal/server"
)

// Middlewares groups all middleware components, built once from the
// application container and reused during router setup.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers, body
	// limits and the global error handler.
	Global *GlobalMiddlewares

	// Auth guards write routes with Clerk when a secret key is configured.
	Auth *AuthMiddleware

	// ContextEnhancer attaches a request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing wires New Relic transactions.
	Tracing *TracingMiddleware

	// RateLimit limits API requests per client.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components. Without New Relic
// the tracing middleware degrades into a no-op.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, s.LoggerService.GetApplication()),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
