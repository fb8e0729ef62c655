// Package grpcgateway provides middleware adapters for grpc-gateway.
//
// # Quick Start
//
//	gwmux := runtime.NewServeMux(grpcgateway.RouteComponents())
//	// Register gRPC services with gwmux...
//
//	handler := grpcgateway.DefaultMiddleware(gwmux, &logger,
//	    httpserver.WithStaticComponent("app", "blog"),
//	)
//	http.ListenAndServe(":8080", handler)
//
// Generated gateway handlers call runtime.AnnotateContext, which is where the
// route is recorded. Statements run on the context it returns end with
//
//	/*app=blog,request_id=...,method=GET,route=/v1/posts/{id}*/
//
// # Combining with HTTP Endpoints
//
// To serve both grpc-gateway and regular HTTP from the same port:
//
//	httpmux := http.NewServeMux()
//	httpmux.Handle("/metrics", httpserver.PrometheusHandler())
//
//	handler := grpcgateway.CombinedMux(gwmux, httpmux)
package grpcgateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/metadata"
)

// RouteComponents returns a ServeMux option that records the matched
// grpc-gateway path pattern, e.g. "/v1/posts/{id}", as the "route" component
// of the request registry. The registry comes from httpserver.Annotate
// wrapped around the mux; without it the option does nothing.
//
// The pattern is only known once a handler calls runtime.AnnotateContext
// with runtime.WithHTTPPathPattern, as generated handlers do. Handlers
// registered with HandlePath that never call it get no route.
func RouteComponents() runtime.ServeMuxOption {
	return runtime.WithMetadata(func(ctx context.Context, _ *http.Request) metadata.MD {
		if pattern, ok := runtime.HTTPPathPattern(ctx); ok {
			httpserver.SetComponent(ctx, comment.RouteKey, routeTemplate(pattern))
		}
		return nil
	})
}

// routeTemplate shortens single-segment captures written as "{id=*}" to
// "{id}".
func routeTemplate(pattern string) string {
	return strings.ReplaceAll(pattern, "=*}", "}")
}

// WrapWithMiddleware wraps a grpc-gateway ServeMux with httpserver middleware.
//
// The middleware is applied in order (first to last).
//
//	handler := grpcgateway.WrapWithMiddleware(gwmux,
//	    httpserver.RequestID(),
//	    httpserver.Annotate(),
//	    httpserver.Recovery(logger),
//	)
func WrapWithMiddleware(mux *runtime.ServeMux, middlewares ...httpserver.Middleware) http.Handler {
	return httpserver.Chain(middlewares...)(mux)
}

// DefaultMiddleware returns mux wrapped with httpserver.DefaultMiddleware:
// RequestID and Annotate, plus Logger and Recovery when logger is set.
//
//	handler := grpcgateway.DefaultMiddleware(gwmux, &logger)
func DefaultMiddleware(
	mux *runtime.ServeMux,
	logger *zerolog.Logger,
	opts ...httpserver.AnnotateOption,
) http.Handler {
	mopts := []httpserver.MiddlewareOption{httpserver.WithDefaultAnnotate(opts...)}
	if logger != nil {
		mopts = append(mopts, httpserver.WithDefaultLogger(httpserver.LoggerConfig{Logger: *logger}))
	}
	return httpserver.DefaultMiddleware(mopts...)(mux)
}

// WithTracing adds OpenTelemetry tracing to a handler.
//
//	handler = grpcgateway.WithTracing(handler, httpserver.DefaultTracingConfig())
func WithTracing(handler http.Handler, cfg httpserver.TracingConfig) http.Handler {
	return httpserver.Tracing(cfg)(handler)
}

// CombinedMux creates a handler that routes between grpc-gateway and HTTP handlers.
//
// Requests with Content-Type "application/grpc" or "application/grpc-web" go to gwmux.
// All other requests go to httpmux.
func CombinedMux(gwmux *runtime.ServeMux, httpmux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if contentType == "application/grpc" || contentType == "application/grpc-web" {
			gwmux.ServeHTTP(w, r)
			return
		}
		httpmux.ServeHTTP(w, r)
	})
}

// Config holds configuration for NewHandler.
type Config struct {
	// Logger enables Recovery and Logger middleware.
	Logger *zerolog.Logger

	// Tracer enables OpenTelemetry tracing.
	Tracer *httpserver.TracingConfig

	// Annotate configures the request comment registry.
	Annotate []httpserver.AnnotateOption
}

// NewHandler wraps mux with the middleware cfg enables.
//
// Applies middleware in the following order:
//  1. RequestID
//  2. Annotate
//  3. Tracing (if Tracer provided)
//  4. Logger (if Logger provided)
//  5. Recovery (if Logger provided)
func NewHandler(mux *runtime.ServeMux, cfg Config) http.Handler {
	middlewares := []httpserver.Middleware{
		httpserver.RequestID(),
		httpserver.Annotate(cfg.Annotate...),
	}

	if cfg.Tracer != nil {
		middlewares = append(middlewares, httpserver.Tracing(*cfg.Tracer))
	}

	if cfg.Logger != nil {
		middlewares = append(middlewares,
			httpserver.Logger(httpserver.LoggerConfig{Logger: *cfg.Logger}),
			httpserver.Recovery(*cfg.Logger),
		)
	}

	return httpserver.Chain(middlewares...)(mux)
}
