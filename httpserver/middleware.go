package httpserver

import "net/http"

// Middleware is a function that wraps an http.Handler.
//
// Middleware functions are composed together using Chain() to create
// a processing pipeline for HTTP requests.
type Middleware func(http.Handler) http.Handler

// Chain composes multiple middleware into a single middleware.
//
// Middleware are applied in the order provided. The first middleware
// is the outermost (runs first on request, last on response).
//
// Example:
//
//	handler := httpserver.Chain(
//	    httpserver.RequestID(),
//	    httpserver.Annotate(),
//	    httpserver.Logger(httpserver.LoggerConfig{Logger: logger}),
//	)(mux)
//
// Request flow:
//
//	RequestID -> Annotate -> Logger -> mux -> Logger -> Annotate -> RequestID
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// DefaultMiddleware returns the stack most services want in front of their
// handlers.
//
// The stack includes (in order):
//  1. RequestID - X-Request-ID generation/forwarding
//  2. Annotate - Per-request comment registry
//  3. Logger - Request logging (if a logger is provided)
//  4. Recovery - Panic recovery (if a logger is provided)
//
// Logger and Recovery sit inside Annotate so their log lines carry the
// components handlers set. Recovery sits inside Logger so recovered requests
// are logged with their 500 status.
//
// Example:
//
//	handler := httpserver.DefaultMiddleware(
//	    httpserver.WithDefaultLogger(httpserver.LoggerConfig{Logger: logger}),
//	    httpserver.WithDefaultAnnotate(httpserver.WithStaticComponent("app", "blog")),
//	)(mux)
func DefaultMiddleware(opts ...MiddlewareOption) Middleware {
	cfg := &middlewareConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		return Chain(RequestID(), Annotate(cfg.annotate...))
	}
	return Chain(
		RequestID(),
		Annotate(cfg.annotate...),
		Logger(*cfg.logger),
		Recovery(cfg.logger.Logger),
	)
}

// middlewareConfig holds options for DefaultMiddleware.
type middlewareConfig struct {
	logger   *LoggerConfig
	annotate []AnnotateOption
}

// MiddlewareOption configures DefaultMiddleware.
type MiddlewareOption func(*middlewareConfig)

// WithDefaultLogger adds recovery and logging middleware to DefaultMiddleware.
func WithDefaultLogger(cfg LoggerConfig) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.logger = &cfg
	}
}

// WithDefaultAnnotate passes opts to the Annotate middleware.
func WithDefaultAnnotate(opts ...AnnotateOption) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.annotate = append(c.annotate, opts...)
	}
}
