package sqlx

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DB wraps *sqlx.DB. Every statement issued through its methods carries the
// comment for the context it runs under.
//
// Methods of the embedded *sqlx.DB that are not overridden here, such as
// sqlx.In helpers, run unannotated.
type DB struct {
	*sqlx.DB
	cfg *config
}

// Open opens a database whose statements are annotated and instrumented.
//
// Example:
//
//	db, err := marginaliasqlx.Open("postgres", dsn,
//	    marginaliasqlx.WithApplication("blog"),
//	    marginaliasqlx.WithDBSystem("postgresql"),
//	)
func Open(driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{DB: db, cfg: newConfig(opts...)}, nil
}

// Connect opens and verifies a database connection.
// It is equivalent to Open followed by Ping.
func Connect(ctx context.Context, driverName, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db, cfg: newConfig(opts...)}, nil
}

// NewDB wraps an existing *sql.DB.
//
// Example:
//
//	sqlDB, _ := sql.Open("sqlite", "app.db")
//	db := marginaliasqlx.NewDB(sqlDB, "sqlite",
//	    marginaliasqlx.WithApplication("blog"),
//	)
func NewDB(db *sql.DB, driverName string, opts ...Option) *DB {
	return &DB{
		DB:  sqlx.NewDb(db, driverName),
		cfg: newConfig(opts...),
	}
}

// MustConnect is like Connect but panics on error.
func MustConnect(ctx context.Context, driverName, dsn string, opts ...Option) *DB {
	db, err := Connect(ctx, driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// MustOpen is like Open but panics on error.
func MustOpen(driverName, dsn string, opts ...Option) *DB {
	db, err := Open(driverName, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

// GetContext executes a query that is expected to return at most one row
// and scans the result into dest.
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return getContext(ctx, db.cfg, db.DB, "sqlx.Get", dest, query, args)
}

// Get is GetContext with a background context.
func (db *DB) Get(dest interface{}, query string, args ...interface{}) error {
	return db.GetContext(context.Background(), dest, query, args...)
}

// SelectContext executes a query and scans all results into dest.
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return selectContext(ctx, db.cfg, db.DB, "sqlx.Select", dest, query, args)
}

// Select is SelectContext with a background context.
func (db *DB) Select(dest interface{}, query string, args ...interface{}) error {
	return db.SelectContext(context.Background(), dest, query, args...)
}

// NamedExecContext executes a named query.
func (db *DB) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return namedExecContext(ctx, db.cfg, db.DB, "sqlx.NamedExec", query, arg)
}

// NamedExec is NamedExecContext with a background context.
func (db *DB) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return db.NamedExecContext(context.Background(), query, arg)
}

// NamedQueryContext executes a named query and returns rows.
func (db *DB) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return namedQueryContext(ctx, db.cfg, db.DB, "sqlx.NamedQuery", query, arg)
}

// NamedQuery is NamedQueryContext with a background context.
func (db *DB) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	return db.NamedQueryContext(context.Background(), query, arg)
}

// QueryxContext executes a query and returns sqlx.Rows.
func (db *DB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return queryxContext(ctx, db.cfg, db.DB, "sqlx.Queryx", query, args)
}

// Queryx is QueryxContext with a background context.
func (db *DB) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return db.QueryxContext(context.Background(), query, args...)
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
func (db *DB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return queryRowxContext(ctx, db.cfg, db.DB, "sqlx.QueryRowx", query, args)
}

// QueryRowx is QueryRowxContext with a background context.
func (db *DB) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return db.QueryRowxContext(context.Background(), query, args...)
}

// ExecContext executes a query without returning rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return execContext(ctx, db.cfg, db.DB, query, args)
}

// Exec is ExecContext with a background context.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(context.Background(), query, args...)
}

// MustExecContext executes a query and panics on error.
func (db *DB) MustExecContext(ctx context.Context, query string, args ...interface{}) sql.Result {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		panic(err)
	}
	return result
}

// MustExec is MustExecContext with a background context.
func (db *DB) MustExec(query string, args ...interface{}) sql.Result {
	return db.MustExecContext(context.Background(), query, args...)
}

// QueryContext executes a query and returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return queryContext(ctx, db.cfg, db.DB, query, args)
}

// Query is QueryContext with a background context.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.QueryContext(context.Background(), query, args...)
}

// QueryRowContext executes a query and returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return queryRowContext(ctx, db.cfg, db.DB, query, args)
}

// QueryRow is QueryRowContext with a background context.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.QueryRowContext(context.Background(), query, args...)
}

// BeginTxx starts an instrumented transaction. The transaction's statements
// are annotated with the context passed to each of them.
func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	var tx *sqlx.Tx
	err := db.cfg.instrumentOp(ctx, "BEGIN", func(ctx context.Context) error {
		var err error
		tx, err = db.DB.BeginTxx(ctx, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, cfg: db.cfg, ctx: ctx}, nil
}

// Beginx starts an instrumented transaction with default options.
func (db *DB) Beginx() (*Tx, error) {
	return db.BeginTxx(context.Background(), nil)
}

// MustBeginTx starts a transaction and panics on error.
func (db *DB) MustBeginTx(ctx context.Context, opts *sql.TxOptions) *Tx {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		panic(err)
	}
	return tx
}

// MustBegin starts a transaction and panics on error.
func (db *DB) MustBegin() *Tx {
	return db.MustBeginTx(context.Background(), nil)
}

// PrepareNamedContext prepares a named statement. The comment is fixed at
// prepare time.
func (db *DB) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var stmt *sqlx.NamedStmt
	err := db.cfg.instrument(ctx, "sqlx.PrepareNamed", query, db.cfg.annotateNamed,
		func(ctx context.Context, query string) error {
			var err error
			stmt, err = db.DB.PrepareNamedContext(ctx, query)
			return err
		})
	if err != nil {
		return nil, err
	}
	return &NamedStmt{NamedStmt: stmt, cfg: db.cfg}, nil
}

// PrepareNamed prepares a named statement without context.
func (db *DB) PrepareNamed(query string) (*NamedStmt, error) {
	return db.PrepareNamedContext(context.Background(), query)
}

// PreparexContext prepares a statement. The comment is fixed at prepare
// time.
func (db *DB) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var stmt *sqlx.Stmt
	var annotated string
	err := db.cfg.instrument(ctx, "sqlx.Preparex", query, db.cfg.annotate,
		func(ctx context.Context, query string) error {
			var err error
			annotated = query
			stmt, err = db.DB.PreparexContext(ctx, query)
			return err
		})
	if err != nil {
		return nil, err
	}
	return &Stmt{Stmt: stmt, cfg: db.cfg, query: annotated}, nil
}

// Preparex prepares a statement without context.
func (db *DB) Preparex(query string) (*Stmt, error) {
	return db.PreparexContext(context.Background(), query)
}

// Unsafe returns a version of DB that silently ignores missing destination fields.
func (db *DB) Unsafe() *DB {
	return &DB{
		DB:  db.DB.Unsafe(),
		cfg: db.cfg,
	}
}

// PingContext verifies the database connection.
func (db *DB) PingContext(ctx context.Context) error {
	return db.cfg.instrumentOp(ctx, "PING", db.DB.PingContext)
}
