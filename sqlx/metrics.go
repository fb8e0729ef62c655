package sqlx

import (
	"context"
	"time"

	marginaliasql "github.com/kroma-labs/marginalia-go/sql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for database operations.
type metrics struct {
	// Query latency histogram
	queryDuration metric.Float64Histogram

	// Statements sent with a comment appended
	annotatedStatements metric.Int64Counter
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.queryDuration, err = meter.Float64Histogram(
		"db.client.operation.duration",
		metric.WithDescription("Duration of database client operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.annotatedStatements, err = meter.Int64Counter(
		"db.client.annotated_statements",
		metric.WithDescription("Number of statements sent with a comment appended"),
		metric.WithUnit("{statement}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// recordAnnotation counts one annotated statement.
func (m *metrics) recordAnnotation(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.annotatedStatements == nil {
		return
	}
	m.annotatedStatements.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// recordQueryDuration records the duration of a query operation.
func (m *metrics) recordQueryDuration(
	ctx context.Context,
	duration time.Duration,
	operation string,
	attrs []attribute.KeyValue,
	err error,
) {
	if m == nil || m.queryDuration == nil {
		return
	}

	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs, attrs...)

	if operation != "" {
		allAttrs = append(allAttrs, attribute.String("db.operation", operation))
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	allAttrs = append(allAttrs, attribute.String("status", status))

	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(allAttrs...))
}

// RecordPoolMetrics registers the connection pool metrics of
// marginaliasql.RecordPoolMetrics for a sqlx database, tagged with the
// attributes given to Open.
//
// Example:
//
//	db, _ := marginaliasqlx.Open("postgres", dsn,
//	    marginaliasqlx.WithDBSystem("postgresql"),
//	    marginaliasqlx.WithDBName("mydb"),
//	)
//
//	err := marginaliasqlx.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("myapp"))
func RecordPoolMetrics(db *DB, meter metric.Meter, attrs ...attribute.KeyValue) error {
	if db.cfg != nil {
		attrs = append(db.cfg.baseAttributes(), attrs...)
	}
	return marginaliasql.RecordPoolMetrics(db.DB.DB, meter, attrs...)
}
