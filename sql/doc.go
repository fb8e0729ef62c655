// Package sql provides a database/sql driver wrapper that appends a
// request-aware comment to every statement and instruments it with
// OpenTelemetry tracing and metrics.
//
// # Features
//
//   - Trailing SQL comment per statement: /*app=blog,controller=posts*/
//   - Components from the request context (see package comment)
//   - OpenTelemetry span per statement, carrying the annotated statement
//   - Query latency and annotation metrics
//   - Full compatibility with database/sql
//
// # Quick Start
//
//	import marginaliasql "github.com/kroma-labs/marginalia-go/sql"
//
//	db, err := marginaliasql.Open("postgres", dsn,
//	    marginaliasql.WithApplication("blog"),
//	    marginaliasql.WithDBSystem("postgresql"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	reg := comment.NewRegistry(comment.Component{Name: "controller", Value: "posts"})
//	ctx = comment.NewContext(ctx, reg)
//
//	// Sent as: SELECT id FROM posts /*app=blog,controller=posts*/
//	rows, err := db.QueryContext(ctx, "SELECT id FROM posts")
//
// # Driver Registration
//
// For more control, wrap a driver or a connector:
//
//	sql.Register("postgres-annotated", marginaliasql.WrapDriver(pq.Driver{},
//	    marginaliasql.WithApplication("blog"),
//	))
//
//	db := sql.OpenDB(marginaliasql.WrapConnector(connector,
//	    marginaliasql.WithApplication("blog"),
//	))
//
// # Prepared Statements
//
// A prepared statement is annotated once, when it is prepared, with the
// components active at that moment. Executions of the statement reuse that
// text.
//
// # Comment Options
//
// Anything package comment offers for a Commenter is available through
// WithCommentOptions:
//
//	db, _ := marginaliasql.Open("postgres", dsn,
//	    marginaliasql.WithCommentOptions(
//	        comment.WithApplication("blog"),
//	        comment.WithTraceContext(),
//	        comment.WithCaller(),
//	    ),
//	)
//
// # Observability
//
// Traces:
//   - Span per statement named after the operation (SELECT, INSERT, ...)
//   - Attributes: db.system, db.name, db.instance, db.statement, db.operation
//
// Metrics:
//   - db.client.operation.duration (histogram by operation)
//   - db.client.annotated_statements (counter)
//   - db.client.connections.* (via RecordPoolMetrics)
package sql
