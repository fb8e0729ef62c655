// Package sqlx wraps jmoiron/sqlx so that every statement carries a trailing
// comment describing where it came from, with OpenTelemetry tracing and
// metrics on top.
//
// # Quick Start
//
//	import marginaliasqlx "github.com/kroma-labs/marginalia-go/sqlx"
//
//	db, err := marginaliasqlx.Open("sqlite", "blog.db",
//	    marginaliasqlx.WithApplication("blog"),
//	    marginaliasqlx.WithDBSystem("sqlite"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	// Sent as: SELECT * FROM posts WHERE id = ? /*app=blog,controller=posts*/
//	var post Post
//	err = db.GetContext(ctx, &post, "SELECT * FROM posts WHERE id = ?", 1)
//
// The components come from the comment.Registry stored in ctx; the
// httpserver middleware and its framework adapters put one there per request.
//
// # Named Parameters
//
// Named queries are annotated before sqlx binds them. Colons inside the
// comment are written as "::" so they are not taken for parameters:
//
//	_, err := db.NamedExecContext(ctx,
//	    "INSERT INTO posts (title) VALUES (:title)", post)
//
// # Prepared Statements
//
// Preparex and PrepareNamed fix the comment when the statement is prepared.
// Every execution of the statement sends that text.
//
// # Layering
//
// This package annotates at the method level. When the *sql.DB given to
// NewDB already comes from marginaliasql.Open, pass WithDisableComments here
// or let the driver layer see an identical comment, which it leaves alone.
//
// # Observability
//
// Traces:
//   - Span per query: sqlx.Get, sqlx.Select, sqlx.NamedExec, etc.
//   - Attributes: db.system, db.name, db.statement, db.operation
//
// Metrics:
//   - db.client.operation.duration (histogram by operation)
//   - db.client.annotated_statements (counter)
package sqlx
