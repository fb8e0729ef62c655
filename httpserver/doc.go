// Package httpserver provides net/http middleware that attaches a SQL comment
// registry to every request, plus the request ID, logging, recovery and
// tracing middleware that usually surround it.
//
// # Quick Start
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /posts/{id}", showPost)
//
//	handler := httpserver.Chain(
//	    httpserver.RequestID(),
//	    httpserver.Annotate(
//	        httpserver.WithStaticComponent("app", "blog"),
//	        httpserver.WithRouteComponent(mux),
//	    ),
//	    httpserver.Tracing(httpserver.DefaultTracingConfig()),
//	    httpserver.Logger(httpserver.LoggerConfig{Logger: logger}),
//	)(mux)
//
// Statements executed with the request context through the sql or sqlx
// wrappers of this module then end with a comment such as:
//
//	/*app=blog,request_id=5b0e...,method=GET,route=GET /posts/{id}*/
//
// # Handler Components
//
// Handlers name themselves with SetComponent. Components set before a
// statement runs appear in that statement's comment:
//
//	func showPost(w http.ResponseWriter, r *http.Request) {
//	    httpserver.SetComponent(r.Context(), "controller", "posts")
//	    httpserver.SetComponent(r.Context(), "action", "show")
//	    err := db.GetContext(r.Context(), &post, "select * from posts where id = ?", id)
//	    ...
//	}
//
// # Ordering
//
// Annotate reads the request ID RequestID stores, so RequestID goes first.
// Logger, Recovery and Tracing add the rendered comment to their output
// ("sql_comment" log field, "sql.comment" span attribute) only when they run
// inside Annotate. DefaultMiddleware wires RequestID, Annotate, Logger and
// Recovery in that order.
//
// # Framework Adapters
//
// The adapters subpackages expose the same middleware for gin, echo, fiber,
// chi and grpc-gateway, and fill in the route or handler components from
// the framework's router.
package httpserver
