package sqlx

import (
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/marginalia-go/sqlx"
)

// config holds the configuration of a wrapped DB.
type config struct {
	// TracerProvider is the tracer provider to use.
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	MeterProvider metric.MeterProvider

	// Tracer is the tracer instance.
	Tracer trace.Tracer

	// Meter is the meter instance.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// Logger receives a debug event per annotated statement.
	Logger zerolog.Logger

	// Commenter renders the annotation. Nil when comments are disabled.
	Commenter *comment.Commenter

	// CommentOptions configure Commenter.
	CommentOptions []comment.Option

	// DisableComments sends statements unchanged.
	DisableComments bool

	// DBSystem identifies the database management system.
	DBSystem string

	// DBName is the name of the database.
	DBName string

	// InstanceName identifies a specific database instance.
	InstanceName string

	// QuerySanitizer sanitizes SQL queries before adding to spans.
	QuerySanitizer func(query string) string

	// DisableQuery disables recording of SQL queries in spans.
	DisableQuery bool
}

// newConfig creates a new config with defaults and applies options.
func newConfig(opts ...Option) *config {
	cfg := &config{
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if !cfg.DisableComments {
		cfg.Commenter = comment.NewCommenter(cfg.CommentOptions...)
	}

	return cfg
}

// Option configures the wrapper.
type Option func(*config)

// WithTracerProvider sets a custom tracer provider.
// If not called, the global provider from otel.GetTracerProvider() is used.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(...)
//	db, _ := marginaliasqlx.Open("postgres", dsn,
//	    marginaliasqlx.WithTracerProvider(tp),
//	)
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.MeterProvider = mp
	}
}

// WithLogger sets the logger that reports annotated statements at debug
// level. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = l
	}
}

// WithCommentOptions configures the comment appended to every statement.
// Options accumulate across calls.
//
// Example:
//
//	db, _ := marginaliasqlx.Open("postgres", dsn,
//	    marginaliasqlx.WithCommentOptions(
//	        comment.WithApplication("blog"),
//	        comment.WithCaller("github.com/acme/blog/store"),
//	    ),
//	)
func WithCommentOptions(opts ...comment.Option) Option {
	return func(cfg *config) {
		cfg.CommentOptions = append(cfg.CommentOptions, opts...)
	}
}

// WithApplication sets the "app" component.
func WithApplication(name string) Option {
	return WithCommentOptions(comment.WithApplication(name))
}

// WithDisableComments turns annotation off while keeping tracing and metrics.
// Use it when the underlying *sql.DB already comes from marginaliasql.Open.
func WithDisableComments() Option {
	return func(cfg *config) {
		cfg.DisableComments = true
	}
}

// WithDBSystem sets the database system identifier (DBMS product).
// This is added as the "db.system" attribute on all spans.
//
// Common values:
//   - "postgresql" - PostgreSQL
//   - "mysql" - MySQL
//   - "sqlite" - SQLite
func WithDBSystem(system string) Option {
	return func(cfg *config) {
		cfg.DBSystem = system
	}
}

// WithDBName sets the database name being accessed.
// This is added as the "db.name" attribute on all spans.
func WithDBName(name string) Option {
	return func(cfg *config) {
		cfg.DBName = name
	}
}

// WithInstanceName sets an identifier for this specific database connection.
// This is added as the "db.instance" attribute on all spans.
//
// Example:
//
//	writerDB, _ := marginaliasqlx.Open("postgres", primaryDSN,
//	    marginaliasqlx.WithInstanceName("primary"),
//	)
//	readerDB, _ := marginaliasqlx.Open("postgres", replicaDSN,
//	    marginaliasqlx.WithInstanceName("replica"),
//	)
func WithInstanceName(name string) Option {
	return func(cfg *config) {
		cfg.InstanceName = name
	}
}

// WithQuerySanitizer sets a function applied to statements before they are
// recorded on spans.
//
//	// Query: "SELECT * FROM users WHERE id = 123"
//	// Recorded as: "SELECT * FROM users WHERE id = ?"
func WithQuerySanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.QuerySanitizer = fn
	}
}

// WithDisableQuery disables recording of SQL queries in spans entirely.
// "db.operation" is still recorded.
func WithDisableQuery() Option {
	return func(cfg *config) {
		cfg.DisableQuery = true
	}
}
