package httpserver

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	// TracerProvider is the OTel tracer provider.
	// If nil, uses otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// Propagator is the context propagator.
	// If nil, uses otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator

	// ServiceName is recorded as service.name on every span when set.
	ServiceName string

	// SkipPaths are paths that should not be traced.
	SkipPaths []string

	// SpanNameFormatter formats the span name.
	// Default: "HTTP {method} {path}"
	SpanNameFormatter func(r *http.Request) string
}

// TracerName is the instrumentation scope of the spans Tracing starts.
const TracerName = "github.com/kroma-labs/marginalia-go/httpserver"

// DefaultTracingConfig returns a tracing configuration using the global
// tracer provider and propagator.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerProvider:    otel.GetTracerProvider(),
		Propagator:        otel.GetTextMapPropagator(),
		SpanNameFormatter: defaultSpanName,
	}
}

func defaultSpanName(r *http.Request) string {
	return "HTTP " + r.Method + " " + r.URL.Path
}

// Tracing returns middleware that runs each request in an OpenTelemetry
// server span.
//
// The span continues the trace found in the request headers and is passed
// on in the request context, where comment.WithTraceContext reads it for SQL
// comments. Once the handler returns, the span gets the response status and
// the request's SQL comment ("sql.comment") when Annotate runs before it.
//
// Example:
//
//	handler := httpserver.Tracing(httpserver.TracingConfig{
//	    TracerProvider: tp,
//	    ServiceName:    "blog",
//	})(myHandler)
func Tracing(cfg TracingConfig) Middleware {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	if cfg.SpanNameFormatter == nil {
		cfg.SpanNameFormatter = defaultSpanName
	}
	tracer := cfg.TracerProvider.Tracer(TracerName)

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := cfg.Propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, cfg.SpanNameFormatter(r),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(ServerSpanAttributes(
					cfg.ServiceName, r.Method, r.URL.Path, r.URL.Scheme, r.Host, r.UserAgent(), r.RemoteAddr,
				)...),
			)
			defer span.End()

			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			FinishServerSpan(ctx, span, rw.Status())
		})
	}
}

// ServerSpanAttributes returns the semantic convention attributes of a
// server span. service.name is left out when serviceName is empty.
func ServerSpanAttributes(serviceName, method, path, scheme, host, userAgent, client string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.URLPath(path),
		semconv.URLScheme(scheme),
		semconv.ServerAddress(host),
		semconv.UserAgentOriginal(userAgent),
		semconv.ClientAddress(client),
	}
	if serviceName != "" {
		attrs = append(attrs, semconv.ServiceName(serviceName))
	}
	return attrs
}

// FinishServerSpan records the response status of a server span along with
// the request ID and SQL comment found in ctx. Statuses of 500 and above
// mark the span as failed.
func FinishServerSpan(ctx context.Context, span trace.Span, status int) {
	span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	if id := RequestIDFromContext(ctx); id != "" {
		span.SetAttributes(attribute.String("request.id", id))
	}
	if c := commentFromContext(ctx); c != "" {
		span.SetAttributes(attribute.String("sql.comment", c))
	}
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
