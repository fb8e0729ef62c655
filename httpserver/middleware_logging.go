package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggerConfig configures the logging middleware.
type LoggerConfig struct {
	Logger zerolog.Logger

	// ServiceName is added to every line as "service" when set.
	ServiceName string

	// SkipPaths are paths that should not be logged.
	// Useful for health check endpoints that are called frequently.
	SkipPaths []string

	// SkipPrefixes skips every path starting with one of the prefixes,
	// e.g. "/debug/".
	SkipPrefixes []string
}

// Logger returns middleware that logs HTTP requests.
//
// Logs include:
//   - Method, path, status code
//   - Request duration
//   - Request ID (if present)
//   - The SQL comment of the request as "sql_comment" (when Annotate runs
//     before it)
//
// The "sql_comment" value is rendered after the handler returns, so
// components set by the handler are included. It is the exact text the
// database sees appended to the request's statements.
//
// Example:
//
//	handler := httpserver.Logger(httpserver.LoggerConfig{
//	    Logger:    logger,
//	    SkipPaths: []string{"/livez", "/readyz", "/metrics"},
//	})(myHandler)
func Logger(cfg LoggerConfig) Middleware {
	skipPaths := make(map[string]bool)
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}
	skip := func(path string) bool {
		if skipPaths[path] {
			return true
		}
		for _, prefix := range cfg.SkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)
			duration := time.Since(start)

			event := cfg.Logger.Info()
			switch status := wrapped.Status(); {
			case status >= 500:
				event = cfg.Logger.Error()
			case status >= 400:
				event = cfg.Logger.Warn()
			}

			if cfg.ServiceName != "" {
				event.Str("service", cfg.ServiceName)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.Status()).
				Dur("duration", duration).
				Int("bytes", wrapped.BytesWritten()).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent())

			if id := RequestIDFromContext(r.Context()); id != "" {
				event.Str("request_id", id)
			}
			if c := commentFromContext(r.Context()); c != "" {
				event.Str("sql_comment", c)
			}

			event.Msg("request completed")
		})
	}
}
