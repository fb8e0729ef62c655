package sql

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the per-statement instruments of a wrapped driver.
type metrics struct {
	// Query latency histogram
	queryDuration metric.Float64Histogram

	// Statements that left the wrapper with a comment appended
	annotatedStatements metric.Int64Counter
}

// newMetrics creates the per-statement instruments.
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

// recordQueryDuration records the duration of a statement, tagged with its
// operation and outcome.
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

// recordAnnotation counts one annotated statement.
func (m *metrics) recordAnnotation(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil || m.annotatedStatements == nil {
		return
	}
	m.annotatedStatements.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// poolGauges are the connection counts of sql.DBStats exported as gauges.
var poolGauges = []struct {
	name        string
	description string
	value       func(sql.DBStats) int64
}{
	{
		name:        "db.client.connections.open",
		description: "Number of open connections in the pool",
		value:       func(s sql.DBStats) int64 { return int64(s.OpenConnections) },
	},
	{
		name:        "db.client.connections.idle",
		description: "Number of idle connections in the pool",
		value:       func(s sql.DBStats) int64 { return int64(s.Idle) },
	},
	{
		name:        "db.client.connections.max",
		description: "Maximum number of connections allowed in the pool",
		value:       func(s sql.DBStats) int64 { return int64(s.MaxOpenConnections) },
	},
	{
		name:        "db.client.connections.used",
		description: "Number of connections currently in use",
		value:       func(s sql.DBStats) int64 { return int64(s.InUse) },
	},
}

// RecordPoolMetrics registers connection pool metrics for a database. They are
// read from db.Stats() when the meter is collected.
//
// When db was opened with Open, the attributes given there (db.system,
// db.name, db.instance) are added to attrs.
//
// Example:
//
//	db, _ := marginaliasql.Open("postgres", dsn,
//	    marginaliasql.WithDBSystem("postgresql"),
//	    marginaliasql.WithDBName("mydb"),
//	)
//
//	err := marginaliasql.RecordPoolMetrics(db, otel.GetMeterProvider().Meter("myapp"))
func RecordPoolMetrics(db *sql.DB, meter metric.Meter, attrs ...attribute.KeyValue) error {
	if drv, ok := db.Driver().(*annotatingDriver); ok && drv.cfg != nil {
		attrs = append(drv.cfg.baseAttributes(), attrs...)
	}
	measured := metric.WithAttributes(attrs...)

	gauges := make([]metric.Int64ObservableGauge, len(poolGauges))
	observables := make([]metric.Observable, 0, len(poolGauges)+2)
	for i, g := range poolGauges {
		gauge, err := meter.Int64ObservableGauge(g.name,
			metric.WithDescription(g.description),
			metric.WithUnit("{connection}"),
		)
		if err != nil {
			return err
		}
		gauges[i] = gauge
		observables = append(observables, gauge)
	}

	waitCount, err := meter.Int64ObservableCounter(
		"db.client.connections.wait_count",
		metric.WithDescription("Total number of times waited for a connection"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return err
	}

	waitDuration, err := meter.Float64ObservableCounter(
		"db.client.connections.wait_duration",
		metric.WithDescription("Total time waited for connections in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}
	observables = append(observables, waitCount, waitDuration)

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := db.Stats()
		for i, g := range poolGauges {
			o.ObserveInt64(gauges[i], g.value(stats), measured)
		}
		o.ObserveInt64(waitCount, stats.WaitCount, measured)
		o.ObserveFloat64(waitDuration, stats.WaitDuration.Seconds(), measured)
		return nil
	}, observables...)
	return err
}
