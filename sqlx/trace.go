package sqlx

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/kroma-labs/marginalia-go/comment"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	stringLiteralRegex  = regexp.MustCompile(`'(?:[^'\\]|\\.)*'`)
	numericLiteralRegex = regexp.MustCompile(`\b\d+\.?\d*\b`)
	hexLiteralRegex     = regexp.MustCompile(`0[xX][0-9a-fA-F]+`)
)

// spanName returns the SQL operation of query, or "SQL" when there is none.
func spanName(query string) string {
	if op := extractOperation(query); op != "" {
		return op
	}
	return "SQL"
}

// extractOperation returns the uppercased first keyword of query, skipping
// leading block comments.
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

// sqlxSpanName generates a span name for sqlx-specific operations.
// An empty method falls back to spanName.
func sqlxSpanName(method, query string) string {
	if method == "" {
		return spanName(query)
	}
	op := extractOperation(query)
	if op == "" {
		return method
	}
	return method + ": " + op
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

// DefaultQuerySanitizer replaces literal values with placeholders so that
// sensitive data stays out of traces.
//
// What it sanitizes:
//   - String literals: 'john' → '?'
//   - Numeric literals: 123, 45.67 → ?
//   - Hex literals: 0xDEADBEEF → ?
func DefaultQuerySanitizer(query string) string {
	query = stringLiteralRegex.ReplaceAllString(query, "'?'")
	query = numericLiteralRegex.ReplaceAllString(query, "?")
	query = hexLiteralRegex.ReplaceAllString(query, "?")
	return query
}

// annotate appends the comment for ctx to a positional query.
func (cfg *config) annotate(ctx context.Context, query string) string {
	if cfg.Commenter == nil {
		return query
	}
	return cfg.splice(ctx, query, cfg.Commenter.Comment(ctx))
}

// annotateNamed appends the comment for ctx to a query in sqlx named form.
// Colons are doubled so that sqlx compiles them back to single colons
// instead of reading ":name" inside a value as a parameter.
func (cfg *config) annotateNamed(ctx context.Context, query string) string {
	if cfg.Commenter == nil {
		return query
	}
	return cfg.splice(ctx, query, strings.ReplaceAll(cfg.Commenter.Comment(ctx), ":", "::"))
}

func (cfg *config) splice(ctx context.Context, query, c string) string {
	if c == "" || comment.Annotated(query, c) {
		return query
	}

	annotated := comment.Annotate(query, c)
	cfg.Metrics.recordAnnotation(ctx, cfg.baseAttributes())
	cfg.Logger.Debug().
		Str("query", query).
		Str("annotated", annotated).
		Msg("statement annotated")
	return annotated
}

// instrument runs fn in a client span named after method and query and
// records its duration. rewrite, when set, runs inside the span so a trace
// context rendered into the comment names that span.
func (cfg *config) instrument(
	ctx context.Context,
	method, query string,
	rewrite func(context.Context, string) string,
	fn func(ctx context.Context, query string) error,
) error {
	start := time.Now()

	ctx, span := cfg.Tracer.Start(ctx, sqlxSpanName(method, query),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(cfg.baseAttributes()...),
	)
	defer span.End()

	if rewrite != nil {
		query = rewrite(ctx, query)
	}
	span.SetAttributes(cfg.queryAttributes(query)...)

	err := fn(ctx, query)

	cfg.Metrics.recordQueryDuration(ctx, time.Since(start), extractOperation(query), cfg.baseAttributes(), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// instrumentOp runs fn in a client span for a statement-less operation
// such as BEGIN or COMMIT.
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
