// Package fiber provides middleware adapters for the Fiber framework.
//
// Fiber runs on fasthttp, not net/http. Handlers reach the request context
// through c.UserContext(), so that is where the adapters keep the request ID,
// the comment registry and the active span. Run statements with it:
//
//	db.GetContext(c.UserContext(), &post, "select * from posts where id = ?", id)
//
// # Quick Start
//
//	app := fiber.New()
//	app.Use(fibermarginalia.Tracing(httpserver.DefaultTracingConfig()))
//	app.Use(fibermarginalia.RequestID())
//	app.Use(fibermarginalia.Annotate(httpserver.WithStaticComponent("app", "blog")))
//	app.Use(fibermarginalia.Logger(httpserver.LoggerConfig{Logger: logger}))
//	app.Use(fibermarginalia.Recovery(logger))
//
//	app.Get("/posts/:id", fibermarginalia.Action("posts", "show"), showPost)
//
// # Route Components
//
// Middleware registered with app.Use runs before Fiber knows the matched
// route, so the route, controller and action are recorded by Action, a
// route-level handler placed in front of the route's own handler.
//
// # Available Middleware
//
//   - Annotate: Per-request comment registry
//   - Action: Route, controller and action components of a route
//   - RequestID: Generates/forwards X-Request-ID header
//   - Recovery: Panic recovery with structured logging
//   - Logger: Structured request logging
//   - Tracing: OpenTelemetry distributed tracing
package fiber

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
)

// WrapMiddleware adapts httpserver middleware to Fiber middleware using
// gofiber's adaptor.
//
// The adaptor runs m to completion before the rest of the Fiber chain, so
// only middleware that acts on the request (headers, rejection) behaves as
// it does on net/http. Context values m sets are not visible to Fiber
// handlers; use Annotate and RequestID for those.
//
//	app.Use(fibermarginalia.WrapMiddleware(myCustomMiddleware))
func WrapMiddleware(m httpserver.Middleware) fiber.Handler {
	return adaptor.HTTPMiddleware(func(next http.Handler) http.Handler {
		return m(next)
	})
}

// RequestID returns Fiber middleware that generates/forwards X-Request-ID
// and stores it in c.UserContext().
func RequestID() fiber.Handler {
	return contextMiddleware(httpserver.RequestID())
}

// Annotate returns Fiber middleware that stores a fresh comment registry in
// c.UserContext(), seeded like httpserver.Annotate. Register RequestID before
// it to get the "request_id" component.
func Annotate(opts ...httpserver.AnnotateOption) fiber.Handler {
	return contextMiddleware(httpserver.Annotate(opts...))
}

// Action returns a route-level handler that records the matched route path,
// e.g. "/posts/:id", and the given controller and action. Empty names are
// skipped.
//
//	app.Get("/posts/:id", fibermarginalia.Action("posts", "show"), showPost)
func Action(controller, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if route := c.Route().Path; route != "" {
			httpserver.SetComponent(ctx, comment.RouteKey, route)
		}
		if controller != "" {
			httpserver.SetComponent(ctx, comment.ControllerKey, controller)
		}
		if action != "" {
			httpserver.SetComponent(ctx, comment.ActionKey, action)
		}
		return c.Next()
	}
}

// RegisterPrometheus registers the Prometheus metrics endpoint.
//
//	fibermarginalia.RegisterPrometheus(app, "/metrics")
func RegisterPrometheus(app fiber.Router, path string) {
	if path == "" {
		path = "/metrics"
	}
	app.Get(path, adaptor.HTTPHandler(httpserver.PrometheusHandler()))
}

// contextMiddleware runs m against a net/http view of the Fiber request and
// continues the Fiber chain with the context m passed on. Response headers m
// sets are copied to the Fiber response. When m answers the request itself,
// its response is sent and the chain stops.
func contextMiddleware(m httpserver.Middleware) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := http.NewRequestWithContext(c.UserContext(), c.Method(), c.OriginalURL(), nil)
		if err != nil {
			return err
		}
		r.Host = c.Hostname()
		c.Request().Header.VisitAll(func(k, v []byte) {
			r.Header.Add(string(k), string(v))
		})

		w := &bridgeWriter{header: make(http.Header)}
		var next *http.Request
		m(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			next = r
		})).ServeHTTP(w, r)

		for k, vs := range w.header {
			for _, v := range vs {
				c.Set(k, v)
			}
		}

		if next == nil {
			status := w.status
			if status == 0 {
				status = http.StatusOK
			}
			return c.Status(status).Send(w.body.Bytes())
		}

		c.SetUserContext(next.Context())
		return c.Next()
	}
}

// bridgeWriter collects what a net/http middleware writes.
type bridgeWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (w *bridgeWriter) Header() http.Header { return w.header }

func (w *bridgeWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bridgeWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}
