// Package echo provides middleware adapters for the Echo framework.
//
// # Quick Start
//
//	e := echo.New()
//	e.Use(echomarginalia.RequestID())
//	e.Use(echomarginalia.Annotate(httpserver.WithStaticComponent("app", "blog")))
//	e.Use(echomarginalia.Recovery(logger))
//
//	e.GET("/posts/:id", showPost)
//
// Statements run with c.Request().Context() inside showPost then end with
//
//	/*app=blog,request_id=...,method=GET,route=/posts/:id*/
//
// # Available Middleware
//
//   - Annotate: Per-request comment registry with the matched route
//   - RequestID: Generates/forwards X-Request-ID header
//   - Recovery: Panic recovery with structured logging
//   - Logger: Structured request logging
//   - Tracing: OpenTelemetry distributed tracing
package echo

import (
	"net/http"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	echolib "github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WrapMiddleware adapts httpserver middleware to Echo middleware.
//
//	e.Use(echomarginalia.WrapMiddleware(myCustomMiddleware))
func WrapMiddleware(m httpserver.Middleware) echolib.MiddlewareFunc {
	return wrap(m, nil)
}

func wrap(m httpserver.Middleware, before func(echolib.Context)) echolib.MiddlewareFunc {
	return func(next echolib.HandlerFunc) echolib.HandlerFunc {
		return func(c echolib.Context) error {
			var err error
			handler := m(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if before != nil {
					before(c)
				}
				err = next(c)
			}))
			handler.ServeHTTP(c.Response(), c.Request())
			return err
		}
	}
}

// Annotate returns Echo middleware that gives every request a comment
// registry, like httpserver.Annotate, and records the matched route
// (c.Path(), e.g. "/posts/:id") as "route".
//
// Register it with e.Use, which runs after routing. Middleware added with
// e.Pre sees no route.
func Annotate(opts ...httpserver.AnnotateOption) echolib.MiddlewareFunc {
	return wrap(httpserver.Annotate(opts...), func(c echolib.Context) {
		if route := c.Path(); route != "" {
			httpserver.SetComponent(c.Request().Context(), comment.RouteKey, route)
		}
	})
}

// Recovery returns Echo middleware that recovers from panics.
//
// On panic, logs the stack trace and returns 500 Internal Server Error.
func Recovery(logger zerolog.Logger) echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.Recovery(logger))
}

// RequestID returns Echo middleware that generates/forwards X-Request-ID.
func RequestID() echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.RequestID())
}

// Logger returns Echo middleware for structured request logging.
//
//	e.Use(echomarginalia.Logger(httpserver.LoggerConfig{
//	    Logger:    logger,
//	    SkipPaths: []string{"/livez"},
//	}))
func Logger(cfg httpserver.LoggerConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.Logger(cfg))
}

// Tracing returns Echo middleware for OpenTelemetry tracing.
//
//	e.Use(echomarginalia.Tracing(httpserver.DefaultTracingConfig()))
func Tracing(cfg httpserver.TracingConfig) echolib.MiddlewareFunc {
	return WrapMiddleware(httpserver.Tracing(cfg))
}

// RegisterPrometheus registers the Prometheus metrics endpoint.
//
//	echomarginalia.RegisterPrometheus(e, "/metrics")
func RegisterPrometheus(e *echolib.Echo, path string) {
	if path == "" {
		path = "/metrics"
	}
	e.GET(path, echolib.WrapHandler(httpserver.PrometheusHandler()))
}
