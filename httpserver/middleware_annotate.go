package httpserver

import (
	"context"
	"net/http"

	"github.com/kroma-labs/marginalia-go/comment"
)

type annotateConfig struct {
	static    comment.Components
	mux       *http.ServeMux
	requestID bool
	method    bool
}

// AnnotateOption configures the Annotate middleware.
type AnnotateOption func(*annotateConfig)

// WithStaticComponent seeds every request registry with name=value.
func WithStaticComponent(name, value string) AnnotateOption {
	return func(c *annotateConfig) {
		c.static = c.static.Merge(comment.Components{{Name: name, Value: value}})
	}
}

// WithRouteComponent adds a "route" component holding the mux pattern that
// matches the request, e.g. "GET /posts/{id}". Requests no pattern matches
// get none.
func WithRouteComponent(mux *http.ServeMux) AnnotateOption {
	return func(c *annotateConfig) {
		c.mux = mux
	}
}

// WithoutRequestID drops the "request_id" component.
func WithoutRequestID() AnnotateOption {
	return func(c *annotateConfig) {
		c.requestID = false
	}
}

// WithoutMethod drops the "method" component.
func WithoutMethod() AnnotateOption {
	return func(c *annotateConfig) {
		c.method = false
	}
}

// Annotate returns middleware that gives every request its own comment
// registry.
//
// The registry is seeded with the static components, the request ID set by
// RequestID (when it runs first), the HTTP method and, with
// WithRouteComponent, the matched route. Handlers add their own components
// with SetComponent; statements executed with the request context through
// the sql or sqlx wrappers carry all of them.
//
// Example:
//
//	handler := httpserver.Chain(
//	    httpserver.RequestID(),
//	    httpserver.Annotate(httpserver.WithStaticComponent("app", "blog")),
//	)(mux)
func Annotate(opts ...AnnotateOption) Middleware {
	cfg := &annotateConfig{requestID: true, method: true}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg := comment.NewRegistry(cfg.static...)
			if cfg.requestID {
				if id := RequestIDFromContext(r.Context()); id != "" {
					reg.Set(comment.RequestIDKey, id)
				}
			}
			if cfg.method {
				reg.Set(comment.MethodKey, r.Method)
			}

			if pattern := routePattern(cfg.mux, r); pattern != "" {
				reg.Set(comment.RouteKey, pattern)
			}

			next.ServeHTTP(w, r.WithContext(comment.NewContext(r.Context(), reg)))
		})
	}
}

// routePattern returns the pattern already matched for r, or the one mux
// would match.
func routePattern(mux *http.ServeMux, r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if mux == nil {
		return ""
	}
	_, pattern := mux.Handler(r)
	return pattern
}

// SetComponent sets name on the registry of the request context. It is a
// no-op when the request did not pass through Annotate.
//
// Example:
//
//	func showPost(w http.ResponseWriter, r *http.Request) {
//	    httpserver.SetComponent(r.Context(), "controller", "posts")
//	    httpserver.SetComponent(r.Context(), "action", "show")
//	    ...
//	}
func SetComponent(ctx context.Context, name, value string) {
	comment.Set(ctx, name, value)
}

// commentFromContext renders the registry of ctx, or "" without one.
func commentFromContext(ctx context.Context) string {
	reg, ok := comment.FromContext(ctx)
	if !ok {
		return ""
	}
	return comment.Format(reg.Snapshot())
}
