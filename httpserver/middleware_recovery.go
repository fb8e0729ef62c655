package httpserver

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Recovery returns middleware that recovers from panics.
//
// The panic is logged with its stack trace, the request ID and the comment
// the request's statements were annotated with, so the log line can be
// matched against the database's slow-query log. The client gets a 500
// Internal Server Error.
//
// Example:
//
//	handler := httpserver.Recovery(logger)(myHandler)
func Recovery(logger zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				event := logger.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("stack", string(debug.Stack()))
				if id := RequestIDFromContext(r.Context()); id != "" {
					event.Str("request_id", id)
				}
				if c := commentFromContext(r.Context()); c != "" {
					event.Str("sql_comment", c)
				}
				event.Msg("panic recovered")

				WriteError(w, http.StatusInternalServerError,
					"internal server error",
					Error{Field: "server", Message: "an unexpected error occurred"},
				)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
