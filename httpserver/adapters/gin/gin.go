// Package gin provides middleware adapters for the Gin framework.
//
// # Quick Start
//
//	r := gin.New()
//	r.Use(ginmarginalia.RequestID())
//	r.Use(ginmarginalia.Annotate(httpserver.WithStaticComponent("app", "blog")))
//	r.Use(ginmarginalia.Recovery(logger))
//
//	r.GET("/posts/:id", posts.Show)
//
// Statements run with c.Request.Context() inside posts.Show then end with
//
//	/*app=blog,request_id=...,method=GET,route=/posts/:id,controller=Posts,action=Show*/
//
// # Available Middleware
//
//   - Annotate: Per-request comment registry with route, controller and action
//   - RequestID: Generates/forwards X-Request-ID header
//   - Recovery: Panic recovery with structured logging
//   - Logger: Structured request logging
//   - Tracing: OpenTelemetry distributed tracing
package gin

import (
	"net/http"

	ginlib "github.com/gin-gonic/gin"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	"github.com/rs/zerolog"
)

// WrapMiddleware adapts httpserver middleware to Gin middleware.
//
//	r.Use(ginmarginalia.WrapMiddleware(myCustomMiddleware))
func WrapMiddleware(m httpserver.Middleware) ginlib.HandlerFunc {
	return wrap(m, nil)
}

// wrap runs m around the rest of the Gin chain. before, when set, runs with
// the request m produced, ahead of the next handler.
func wrap(m httpserver.Middleware, before func(*ginlib.Context)) ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		var reached, aborted bool
		handler := m(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r
			if before != nil {
				before(c)
			}
			c.Next()
			aborted = c.IsAborted()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !reached || aborted {
			c.Abort()
		}
	}
}

// Annotate returns Gin middleware that gives every request a comment
// registry, like httpserver.Annotate, and records the matched route:
//
//   - "route" holds c.FullPath(), e.g. "/posts/:id"
//   - "controller" and "action" are derived from the route's handler with
//     httpserver.ControllerAction
//
// Unmatched requests get neither.
//
//	r.Use(ginmarginalia.Annotate(httpserver.WithStaticComponent("app", "blog")))
func Annotate(opts ...httpserver.AnnotateOption) ginlib.HandlerFunc {
	return wrap(httpserver.Annotate(opts...), setRouteComponents)
}

func setRouteComponents(c *ginlib.Context) {
	route := c.FullPath()
	if route == "" {
		return
	}
	ctx := c.Request.Context()
	httpserver.SetComponent(ctx, comment.RouteKey, route)

	controller, action := httpserver.ControllerAction(c.HandlerName())
	if controller != "" {
		httpserver.SetComponent(ctx, comment.ControllerKey, controller)
	}
	if action != "" {
		httpserver.SetComponent(ctx, comment.ActionKey, action)
	}
}

// Recovery returns Gin middleware that recovers from panics.
//
// On panic, logs the stack trace and returns 500 Internal Server Error.
func Recovery(logger zerolog.Logger) ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.Recovery(logger))
}

// RequestID returns Gin middleware that generates/forwards X-Request-ID.
func RequestID() ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.RequestID())
}

// Logger returns Gin middleware for structured request logging.
//
//	r.Use(ginmarginalia.Logger(httpserver.LoggerConfig{
//	    Logger:    logger,
//	    SkipPaths: []string{"/livez", "/metrics"},
//	}))
func Logger(cfg httpserver.LoggerConfig) ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.Logger(cfg))
}

// Tracing returns Gin middleware for OpenTelemetry tracing.
//
//	r.Use(ginmarginalia.Tracing(httpserver.DefaultTracingConfig()))
func Tracing(cfg httpserver.TracingConfig) ginlib.HandlerFunc {
	return WrapMiddleware(httpserver.Tracing(cfg))
}

// WrapHandler wraps an http.Handler as a Gin handler.
//
//	r.GET("/metrics", ginmarginalia.WrapHandler(httpserver.PrometheusHandler()))
func WrapHandler(h http.Handler) ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RegisterPrometheus registers the Prometheus metrics endpoint.
//
//	ginmarginalia.RegisterPrometheus(r, "/metrics")
func RegisterPrometheus(r ginlib.IRoutes, path string) {
	if path == "" {
		path = "/metrics"
	}
	r.GET(path, WrapHandler(httpserver.PrometheusHandler()))
}
