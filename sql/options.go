package sql

import (
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/marginalia-go/sql"
)

// config holds the configuration of a wrapped driver.
type config struct {
	// TracerProvider is the tracer provider to use.
	// If not set, uses the global provider via otel.GetTracerProvider().
	TracerProvider trace.TracerProvider

	// MeterProvider is the meter provider to use.
	// If not set, uses the global provider via otel.GetMeterProvider().
	MeterProvider metric.MeterProvider

	// Tracer is the tracer instance created from TracerProvider.
	Tracer trace.Tracer

	// Meter is the meter instance created from MeterProvider.
	Meter metric.Meter

	// Metrics holds the metric instruments.
	Metrics *metrics

	// Logger receives a debug event per annotated statement.
	Logger zerolog.Logger

	// Commenter renders the annotation. Nil when comments are disabled.
	Commenter *comment.Commenter

	// CommentOptions configure Commenter.
	CommentOptions []comment.Option

	// DisableComments sends statements unchanged; tracing and metrics remain.
	DisableComments bool

	// DBSystem identifies the database management system (DBMS) product.
	// Examples: "postgresql", "mysql", "sqlite"
	DBSystem string

	// DBName is the name of the database being accessed.
	DBName string

	// InstanceName identifies a specific database connection instance,
	// such as "primary" or "replica".
	InstanceName string

	// QuerySanitizer sanitizes statements before they are added to spans.
	QuerySanitizer func(query string) string

	// DisableQuery disables recording of statements in spans.
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

	// Initialize metrics (ignore errors, will just be nil if fails)
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if !cfg.DisableComments {
		cfg.Commenter = comment.NewCommenter(cfg.CommentOptions...)
	}

	return cfg
}

// Option configures the driver wrapper.
type Option func(*config)

// WithTracerProvider sets a custom tracer provider.
// If not called, the global provider from otel.GetTracerProvider() is used.
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

// WithLogger sets the logger used to report annotated statements at debug
// level. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.Logger = l
	}
}

// WithCommentOptions configures the comment rendered on every statement.
// Options accumulate across calls.
//
// Example:
//
//	db, _ := marginaliasql.Open("postgres", dsn,
//	    marginaliasql.WithCommentOptions(
//	        comment.WithApplication("blog"),
//	        comment.WithHostname(),
//	        comment.WithTraceContext(),
//	    ),
//	)
func WithCommentOptions(opts ...comment.Option) Option {
	return func(cfg *config) {
		cfg.CommentOptions = append(cfg.CommentOptions, opts...)
	}
}

// WithApplication sets the "app" component. It is a shortcut for
// WithCommentOptions(comment.WithApplication(name)).
func WithApplication(name string) Option {
	return WithCommentOptions(comment.WithApplication(name))
}

// WithDisableComments turns annotation off while keeping tracing and metrics.
func WithDisableComments() Option {
	return func(cfg *config) {
		cfg.DisableComments = true
	}
}

// WithDBSystem sets the database system identifier (DBMS product).
// This is added as the "db.system" attribute on all spans.
//
// Common values: "postgresql", "mysql", "sqlite", "mssql", "oracle".
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
// Use this to distinguish between multiple connections to the same database,
// such as "primary" and "replica".
func WithInstanceName(name string) Option {
	return func(cfg *config) {
		cfg.InstanceName = name
	}
}

// WithQuerySanitizer sets a function applied to statements before they are
// recorded on spans. The statement sent to the database is not affected.
//
// Example:
//
//	db, _ := marginaliasql.Open("postgres", dsn,
//	    marginaliasql.WithQuerySanitizer(marginaliasql.DefaultQuerySanitizer),
//	)
func WithQuerySanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		cfg.QuerySanitizer = fn
	}
}

// WithDisableQuery disables recording of statements in spans entirely.
// The "db.operation" attribute is still recorded.
func WithDisableQuery() Option {
	return func(cfg *config) {
		cfg.DisableQuery = true
	}
}
