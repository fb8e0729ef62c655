package fiber

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Recovery returns Fiber middleware that recovers from panics in the rest of
// the chain. The panic is logged with the request ID and SQL comment found in
// c.UserContext() and answered with 500 Internal Server Error.
func Recovery(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			event := logger.Error().
				Interface("panic", rec).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("stack", string(debug.Stack()))
			requestFields(c.UserContext(), event)
			event.Msg("panic recovered")

			err = c.Status(http.StatusInternalServerError).JSON(httpserver.Response[any]{
				Errors:  []httpserver.Error{{Field: "server", Message: "an unexpected error occurred"}},
				Message: "internal server error",
			})
		}()

		return c.Next()
	}
}

// Logger returns Fiber middleware for structured request logging, with the
// same fields as httpserver.Logger. Errors returned by the chain are handed
// to the app's error handler first so the logged status is the one sent.
func Logger(cfg httpserver.LoggerConfig) fiber.Handler {
	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if skipPaths[path] || hasAnyPrefix(path, cfg.SkipPrefixes) {
			return c.Next()
		}

		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(http.StatusInternalServerError)
			}
		}
		duration := time.Since(start)

		status := c.Response().StatusCode()
		event := cfg.Logger.Info()
		switch {
		case status >= 500:
			event = cfg.Logger.Error()
		case status >= 400:
			event = cfg.Logger.Warn()
		}

		if cfg.ServiceName != "" {
			event.Str("service", cfg.ServiceName)
		}
		event.
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Dur("duration", duration).
			Int("bytes", len(c.Response().Body())).
			Str("remote_addr", c.IP()).
			Str("user_agent", c.Get(fiber.HeaderUserAgent))
		requestFields(c.UserContext(), event)
		event.Msg("request completed")

		return nil
	}
}

// Tracing returns Fiber middleware for OpenTelemetry tracing. The server
// span is stored in c.UserContext(), so statements of the request become its
// children and comment.WithTraceContext reports it. cfg.SpanNameFormatter is
// not used; spans are named "HTTP {method} {path}".
func Tracing(cfg httpserver.TracingConfig) fiber.Handler {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	tracer := cfg.TracerProvider.Tracer(httpserver.TracerName)

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *fiber.Ctx) error {
		if skipPaths[c.Path()] {
			return c.Next()
		}

		header := make(http.Header)
		c.Request().Header.VisitAll(func(k, v []byte) {
			header.Add(string(k), string(v))
		})
		ctx := cfg.Propagator.Extract(c.UserContext(), propagation.HeaderCarrier(header))

		ctx, span := tracer.Start(ctx, "HTTP "+c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(httpserver.ServerSpanAttributes(
				cfg.ServiceName, c.Method(), c.Path(), c.Protocol(), c.Hostname(),
				c.Get(fiber.HeaderUserAgent), c.IP(),
			)...),
		)
		defer span.End()

		c.SetUserContext(ctx)
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			span.RecordError(err)
			status = http.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		httpserver.FinishServerSpan(c.UserContext(), span, status)
		return err
	}
}

func requestFields(ctx context.Context, event *zerolog.Event) {
	if id := httpserver.RequestIDFromContext(ctx); id != "" {
		event.Str("request_id", id)
	}
	if sc := sqlComment(ctx); sc != "" {
		event.Str("sql_comment", sc)
	}
}

func sqlComment(ctx context.Context) string {
	reg, ok := comment.FromContext(ctx)
	if !ok {
		return ""
	}
	return comment.Format(reg.Snapshot())
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
