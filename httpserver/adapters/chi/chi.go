// Package chi provides middleware adapters for the chi router.
//
// chi middleware is plain net/http middleware, so the httpserver middleware
// works unchanged. This package adds the route-aware piece: middleware
// registered with r.Use runs before chi has matched a route, so the route
// pattern is recorded by Action, an inline middleware added with r.With.
//
// # Quick Start
//
//	r := chi.NewRouter()
//	r.Use(chimarginalia.RequestID())
//	r.Use(chimarginalia.Annotate(httpserver.WithStaticComponent("app", "blog")))
//	r.Use(chimarginalia.Logger(httpserver.LoggerConfig{Logger: logger}))
//
//	r.With(chimarginalia.Action("posts", "show")).Get("/posts/{id}", showPost)
//
// Statements run with r.Context() inside showPost then end with
//
//	/*app=blog,request_id=...,method=GET,route=/posts/{id},controller=posts,action=show*/
package chi

import (
	"net/http"

	chilib "github.com/go-chi/chi/v5"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	"github.com/rs/zerolog"
)

// Annotate returns chi middleware that gives every request a comment
// registry. See httpserver.Annotate.
func Annotate(opts ...httpserver.AnnotateOption) func(http.Handler) http.Handler {
	return httpserver.Annotate(opts...)
}

// Action returns inline chi middleware that records the matched route
// pattern, e.g. "/posts/{id}", and the given controller and action. Empty
// names are skipped.
//
//	r.With(chimarginalia.Action("posts", "show")).Get("/posts/{id}", showPost)
func Action(controller, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if rctx := chilib.RouteContext(ctx); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					httpserver.SetComponent(ctx, comment.RouteKey, pattern)
				}
			}
			if controller != "" {
				httpserver.SetComponent(ctx, comment.ControllerKey, controller)
			}
			if action != "" {
				httpserver.SetComponent(ctx, comment.ActionKey, action)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID returns chi middleware that generates/forwards X-Request-ID.
func RequestID() func(http.Handler) http.Handler {
	return httpserver.RequestID()
}

// Recovery returns chi middleware that recovers from panics.
func Recovery(logger zerolog.Logger) func(http.Handler) http.Handler {
	return httpserver.Recovery(logger)
}

// Logger returns chi middleware for structured request logging.
func Logger(cfg httpserver.LoggerConfig) func(http.Handler) http.Handler {
	return httpserver.Logger(cfg)
}

// Tracing returns chi middleware for OpenTelemetry tracing. Spans are named
// after the matched route pattern unless cfg sets a SpanNameFormatter.
func Tracing(cfg httpserver.TracingConfig) func(http.Handler) http.Handler {
	if cfg.SpanNameFormatter == nil {
		cfg.SpanNameFormatter = spanName
	}
	return httpserver.Tracing(cfg)
}

// spanName names a span after the route chi will match for r. The tracing
// middleware runs before routing, so the pattern is looked up on the router
// stored in the request's route context.
func spanName(r *http.Request) string {
	if rctx := chilib.RouteContext(r.Context()); rctx != nil && rctx.Routes != nil {
		tctx := chilib.NewRouteContext()
		if rctx.Routes.Match(tctx, r.Method, r.URL.Path) {
			return "HTTP " + r.Method + " " + tctx.RoutePattern()
		}
	}
	return "HTTP " + r.Method + " " + r.URL.Path
}

// RegisterPrometheus registers the Prometheus metrics endpoint.
//
//	chimarginalia.RegisterPrometheus(r, "/metrics")
func RegisterPrometheus(r chilib.Router, path string) {
	if path == "" {
		path = "/metrics"
	}
	r.Handle(path, httpserver.PrometheusHandler())
}
