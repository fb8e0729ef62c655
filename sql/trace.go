package sql

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Regex patterns for query sanitization.
var (
	// stringLiteralRegex matches single-quoted strings, handling escaped quotes.
	stringLiteralRegex = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)

	// numericLiteralRegex matches numeric literals (integers and floats).
	numericLiteralRegex = regexp.MustCompile(`\b\d+\.?\d*\b`)

	// hexLiteralRegex matches hex literals.
	hexLiteralRegex = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)
)

// spanName returns the span name for a statement: its operation, or "SQL"
// when none can be found. Span names must not be empty.
func spanName(query string) string {
	op := extractOperation(query)
	if op != "" {
		return op
	}
	return "SQL"
}

// extractOperation returns the uppercased first keyword of query, skipping
// leading whitespace and block comments.
//
// Example:
//
//	extractOperation("select * from users")          // returns "SELECT"
//	extractOperation("/* hint */ UPDATE users SET x") // returns "UPDATE"
//	extractOperation("")                             // returns ""
func extractOperation(query string) string {
	query = strings.TrimSpace(query)
	for strings.HasPrefix(query, "/*") {
		end := strings.Index(query, "*/")
		if end < 0 {
			return ""
		}
		query = strings.TrimSpace(query[end+2:])
	}
	if query == "" {
		return ""
	}

	spaceIdx := strings.IndexAny(query, " \t\n\r;")
	if spaceIdx == -1 {
		return strings.ToUpper(query)
	}
	return strings.ToUpper(query[:spaceIdx])
}

// DefaultQuerySanitizer replaces literal values with placeholders so that
// sensitive data stays out of traces.
//
// What it sanitizes:
//   - String literals: 'john' → '?'
//   - Numeric literals: 123, 45.67 → ?
//   - Hex literals: 0xDEADBEEF → ?
//
// Note: This is a simple regex-based implementation, not a SQL parser.
func DefaultQuerySanitizer(query string) string {
	query = stringLiteralRegex.ReplaceAllString(query, "'?'")
	query = numericLiteralRegex.ReplaceAllString(query, "?")
	query = hexLiteralRegex.ReplaceAllString(query, "?")
	return query
}

// baseAttributes returns the base attributes for all spans and metrics.
func (cfg *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if cfg.DBSystem != "" {
		attrs = append(attrs, attribute.String("db.system", cfg.DBSystem))
	}
	if cfg.DBName != "" {
		attrs = append(attrs, attribute.String("db.name", cfg.DBName))
	}
	if cfg.InstanceName != "" {
		attrs = append(attrs, attribute.String("db.instance", cfg.InstanceName))
	}
	return attrs
}

// queryAttributes returns the statement attributes for query.
func (cfg *config) queryAttributes(query string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)

	if !cfg.DisableQuery && query != "" {
		sanitized := query
		if cfg.QuerySanitizer != nil {
			sanitized = cfg.QuerySanitizer(query)
		}
		attrs = append(attrs, attribute.String("db.statement", sanitized))
	}

	if op := extractOperation(query); op != "" {
		attrs = append(attrs, attribute.String("db.operation", op))
	}

	return attrs
}

// annotate returns query with the comment for ctx appended.
func (cfg *config) annotate(ctx context.Context, query string) string {
	if cfg.Commenter == nil {
		return query
	}

	annotated := cfg.Commenter.Annotate(ctx, query)
	if annotated != query {
		cfg.Metrics.recordAnnotation(ctx, cfg.baseAttributes())
		cfg.Logger.Debug().
			Str("query", query).
			Str("annotated", annotated).
			Msg("statement annotated")
	}
	return annotated
}

// instrument runs fn in a client span for query and records its duration.
//
// The span is started before rewrite runs, so a trace context rendered into
// the comment points at the database span. fn receives the rewritten query;
// a nil rewrite leaves it as is.
func (cfg *config) instrument(
	ctx context.Context,
	query string,
	rewrite func(context.Context, string) string,
	fn func(ctx context.Context, query string) error,
) error {
	start := time.Now()

	ctx, span := cfg.Tracer.Start(ctx, spanName(query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(cfg.baseAttributes()...),
	)
	defer span.End()

	if rewrite != nil {
		query = rewrite(ctx, query)
	}
	span.SetAttributes(cfg.queryAttributes(query)...)

	err := fn(ctx, query)
	if errors.Is(err, driver.ErrSkip) {
		// database/sql retries through another path, which is instrumented there.
		return err
	}

	cfg.Metrics.recordQueryDuration(ctx, time.Since(start), extractOperation(query), cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// instrumentOp runs fn in a client span for a statement-less operation such
// as BEGIN or PING.
func (cfg *config) instrumentOp(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, span := cfg.Tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(cfg.baseAttributes()...),
	)
	defer span.End()

	err := fn(ctx)

	cfg.Metrics.recordQueryDuration(ctx, time.Since(start), op, cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
