// Package middleware holds the echo middlewares shared by every route:
// request ids, the request logger, tracing, authentication, rate limits and
// the global error handler.
package middleware

import (
	"github.com/deppfellow/classroom/internal/server"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type Middlewares struct {
	Global          *GlobalMiddlewares
	Auth            *AuthMiddleware
	ContextEnhancer *ContextEnhancer
	Tracing         *TracingMiddleware
	RateLimit       *RateLimitMiddleware
}

// NewMiddlewares builds the middleware container. counter backs the Redis
// rate limit store and may be nil.
func NewMiddlewares(s *server.Server, auth Authenticator, counter Counter) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s, auth),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s, counter),
	}
}
