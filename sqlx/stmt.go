package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Stmt wraps *sqlx.Stmt. query is the annotated text the statement was
// prepared with; executions do not annotate again.
type Stmt struct {
	*sqlx.Stmt
	cfg   *config
	query string
}

// run executes fn in a span for the prepared query.
func (s *Stmt) run(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	return s.cfg.instrument(ctx, method, s.query, nil, func(ctx context.Context, _ string) error {
		return fn(ctx)
	})
}

// GetContext executes the prepared statement for a single row.
func (s *Stmt) GetContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	return s.run(ctx, "sqlx.Stmt.Get", func(ctx context.Context) error {
		return s.Stmt.GetContext(ctx, dest, args...)
	})
}

// SelectContext executes the prepared statement and scans results into dest.
func (s *Stmt) SelectContext(ctx context.Context, dest interface{}, args ...interface{}) error {
	return s.run(ctx, "sqlx.Stmt.Select", func(ctx context.Context) error {
		return s.Stmt.SelectContext(ctx, dest, args...)
	})
}

// ExecContext executes the prepared statement.
func (s *Stmt) ExecContext(ctx context.Context, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := s.run(ctx, "", func(ctx context.Context) error {
		var err error
		result, err = s.Stmt.ExecContext(ctx, args...)
		return err
	})
	return result, err
}

// QueryContext executes the prepared statement and returns rows.
func (s *Stmt) QueryContext(ctx context.Context, args ...interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.run(ctx, "", func(ctx context.Context) error {
		var err error
		rows, err = s.Stmt.QueryContext(ctx, args...)
		return err
	})
	return rows, err
}

// QueryRowContext executes the prepared statement and returns a single row.
func (s *Stmt) QueryRowContext(ctx context.Context, args ...interface{}) *sql.Row {
	var row *sql.Row
	_ = s.run(ctx, "", func(ctx context.Context) error {
		row = s.Stmt.Stmt.QueryRowContext(ctx, args...)
		return row.Err()
	})
	return row
}

// QueryxContext executes the prepared statement and returns sqlx.Rows.
func (s *Stmt) QueryxContext(ctx context.Context, args ...interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := s.run(ctx, "sqlx.Stmt.Queryx", func(ctx context.Context) error {
		var err error
		rows, err = s.Stmt.QueryxContext(ctx, args...)
		return err
	})
	return rows, err
}

// QueryRowxContext executes the prepared statement and returns a single sqlx.Row.
func (s *Stmt) QueryRowxContext(ctx context.Context, args ...interface{}) *sqlx.Row {
	var row *sqlx.Row
	_ = s.run(ctx, "sqlx.Stmt.QueryRowx", func(ctx context.Context) error {
		row = s.Stmt.QueryRowxContext(ctx, args...)
		return row.Err()
	})
	return row
}

// Unsafe returns a version of Stmt that silently ignores missing destination fields.
func (s *Stmt) Unsafe() *Stmt {
	return &Stmt{
		Stmt:  s.Stmt.Unsafe(),
		cfg:   s.cfg,
		query: s.query,
	}
}

// NamedStmt wraps *sqlx.NamedStmt. Its QueryString holds the bound,
// annotated statement.
type NamedStmt struct {
	*sqlx.NamedStmt
	cfg *config
}

// run executes fn in a span for the prepared query.
func (ns *NamedStmt) run(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	return ns.cfg.instrument(ctx, method, ns.QueryString, nil, func(ctx context.Context, _ string) error {
		return fn(ctx)
	})
}

// GetContext executes the named statement for a single row.
func (ns *NamedStmt) GetContext(ctx context.Context, dest interface{}, arg interface{}) error {
	return ns.run(ctx, "sqlx.NamedStmt.Get", func(ctx context.Context) error {
		return ns.NamedStmt.GetContext(ctx, dest, arg)
	})
}

// SelectContext executes the named statement and scans results into dest.
func (ns *NamedStmt) SelectContext(ctx context.Context, dest interface{}, arg interface{}) error {
	return ns.run(ctx, "sqlx.NamedStmt.Select", func(ctx context.Context) error {
		return ns.NamedStmt.SelectContext(ctx, dest, arg)
	})
}

// ExecContext executes the named statement.
func (ns *NamedStmt) ExecContext(ctx context.Context, arg interface{}) (sql.Result, error) {
	var result sql.Result
	err := ns.run(ctx, "", func(ctx context.Context) error {
		var err error
		result, err = ns.NamedStmt.ExecContext(ctx, arg)
		return err
	})
	return result, err
}

// MustExecContext executes the named statement and panics on error.
func (ns *NamedStmt) MustExecContext(ctx context.Context, arg interface{}) sql.Result {
	result, err := ns.ExecContext(ctx, arg)
	if err != nil {
		panic(err)
	}
	return result
}

// QueryContext executes the named statement and returns rows.
func (ns *NamedStmt) QueryContext(ctx context.Context, arg interface{}) (*sql.Rows, error) {
	var rows *sql.Rows
	err := ns.run(ctx, "", func(ctx context.Context) error {
		var err error
		rows, err = ns.NamedStmt.QueryContext(ctx, arg)
		return err
	})
	return rows, err
}

// QueryRowxContext executes the named statement and returns a single sqlx.Row.
func (ns *NamedStmt) QueryRowxContext(ctx context.Context, arg interface{}) *sqlx.Row {
	var row *sqlx.Row
	_ = ns.run(ctx, "sqlx.NamedStmt.QueryRowx", func(ctx context.Context) error {
		row = ns.NamedStmt.QueryRowxContext(ctx, arg)
		return row.Err()
	})
	return row
}

// QueryxContext executes the named statement and returns sqlx.Rows.
func (ns *NamedStmt) QueryxContext(ctx context.Context, arg interface{}) (*sqlx.Rows, error) {
	var rows *sqlx.Rows
	err := ns.run(ctx, "sqlx.NamedStmt.Queryx", func(ctx context.Context) error {
		var err error
		rows, err = ns.NamedStmt.QueryxContext(ctx, arg)
		return err
	})
	return rows, err
}

// Unsafe returns a version of NamedStmt that silently ignores missing destination fields.
func (ns *NamedStmt) Unsafe() *NamedStmt {
	return &NamedStmt{
		NamedStmt: ns.NamedStmt.Unsafe(),
		cfg:       ns.cfg,
	}
}
