package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// rowQueryer is implemented by *sqlx.DB and *sqlx.Tx.
type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// The helpers below hold the statement paths shared by DB and Tx. Each one
// annotates the query inside the span and passes it to the plain sqlx value.

func getContext(
	ctx context.Context,
	cfg *config,
	q sqlx.QueryerContext,
	method string,
	dest interface{},
	query string,
	args []interface{},
) error {
	return cfg.instrument(ctx, method, query, cfg.annotate, func(ctx context.Context, query string) error {
		return sqlx.GetContext(ctx, q, dest, query, args...)
	})
}

func selectContext(
	ctx context.Context,
	cfg *config,
	q sqlx.QueryerContext,
	method string,
	dest interface{},
	query string,
	args []interface{},
) error {
	return cfg.instrument(ctx, method, query, cfg.annotate, func(ctx context.Context, query string) error {
		return sqlx.SelectContext(ctx, q, dest, query, args...)
	})
}

func execContext(
	ctx context.Context,
	cfg *config,
	e sqlx.ExecerContext,
	query string,
	args []interface{},
) (sql.Result, error) {
	var result sql.Result
	err := cfg.instrument(ctx, "", query, cfg.annotate, func(ctx context.Context, query string) error {
		var err error
		result, err = e.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

func queryContext(
	ctx context.Context,
	cfg *config,
	q sqlx.QueryerContext,
	query string,
	args []interface{},
) (*sql.Rows, error) {
	var rows *sql.Rows
	err := cfg.instrument(ctx, "", query, cfg.annotate, func(ctx context.Context, query string) error {
		var err error
		rows, err = q.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

func queryxContext(
	ctx context.Context,
	cfg *config,
	q sqlx.QueryerContext,
	method string,
	query string,
	args []interface{},
) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := cfg.instrument(ctx, method, query, cfg.annotate, func(ctx context.Context, query string) error {
		var err error
		rows, err = q.QueryxContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// queryRowContext reports the row's error on the span. Errors that only
// appear at Scan time are not seen.
func queryRowContext(
	ctx context.Context,
	cfg *config,
	q rowQueryer,
	query string,
	args []interface{},
) *sql.Row {
	var row *sql.Row
	_ = cfg.instrument(ctx, "", query, cfg.annotate, func(ctx context.Context, query string) error {
		row = q.QueryRowContext(ctx, query, args...)
		return row.Err()
	})
	return row
}

func queryRowxContext(
	ctx context.Context,
	cfg *config,
	q sqlx.QueryerContext,
	method string,
	query string,
	args []interface{},
) *sqlx.Row {
	var row *sqlx.Row
	_ = cfg.instrument(ctx, method, query, cfg.annotate, func(ctx context.Context, query string) error {
		row = q.QueryRowxContext(ctx, query, args...)
		return row.Err()
	})
	return row
}

func namedExecContext(
	ctx context.Context,
	cfg *config,
	e sqlx.ExtContext,
	method string,
	query string,
	arg interface{},
) (sql.Result, error) {
	var result sql.Result
	err := cfg.instrument(ctx, method, query, cfg.annotateNamed, func(ctx context.Context, query string) error {
		var err error
		result, err = sqlx.NamedExecContext(ctx, e, query, arg)
		return err
	})
	return result, err
}

func namedQueryContext(
	ctx context.Context,
	cfg *config,
	e sqlx.ExtContext,
	method string,
	query string,
	arg interface{},
) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := cfg.instrument(ctx, method, query, cfg.annotateNamed, func(ctx context.Context, query string) error {
		var err error
		rows, err = sqlx.NamedQueryContext(ctx, e, query, arg)
		return err
	})
	return rows, err
}
