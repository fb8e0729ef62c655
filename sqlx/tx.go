package sqlx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Tx wraps *sqlx.Tx. Statements are annotated with the context passed to
// each call; COMMIT and ROLLBACK spans use the context of BeginTxx.
type Tx struct {
	*sqlx.Tx
	cfg *config
	ctx context.Context
}

// GetContext executes a query that returns at most one row and scans into dest.
func (tx *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return getContext(ctx, tx.cfg, tx.Tx, "sqlx.Tx.Get", dest, query, args)
}

// Get is GetContext with the transaction's context.
func (tx *Tx) Get(dest interface{}, query string, args ...interface{}) error {
	return tx.GetContext(tx.context(), dest, query, args...)
}

// SelectContext executes a query and scans all results into dest.
func (tx *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return selectContext(ctx, tx.cfg, tx.Tx, "sqlx.Tx.Select", dest, query, args)
}

// Select is SelectContext with the transaction's context.
func (tx *Tx) Select(dest interface{}, query string, args ...interface{}) error {
	return tx.SelectContext(tx.context(), dest, query, args...)
}

// NamedExecContext executes a named query within the transaction.
func (tx *Tx) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return namedExecContext(ctx, tx.cfg, tx.Tx, "sqlx.Tx.NamedExec", query, arg)
}

// NamedExec is NamedExecContext with the transaction's context.
func (tx *Tx) NamedExec(query string, arg interface{}) (sql.Result, error) {
	return tx.NamedExecContext(tx.context(), query, arg)
}

// NamedQueryContext executes a named query within the transaction.
func (tx *Tx) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return namedQueryContext(ctx, tx.cfg, tx.Tx, "sqlx.Tx.NamedQuery", query, arg)
}

// NamedQuery is NamedQueryContext with the transaction's context.
func (tx *Tx) NamedQuery(query string, arg interface{}) (*sqlx.Rows, error) {
	return tx.NamedQueryContext(tx.context(), query, arg)
}

// QueryxContext executes a query and returns sqlx.Rows.
func (tx *Tx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return queryxContext(ctx, tx.cfg, tx.Tx, "sqlx.Tx.Queryx", query, args)
}

// Queryx is QueryxContext with the transaction's context.
func (tx *Tx) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return tx.QueryxContext(tx.context(), query, args...)
}

// QueryRowxContext executes a query and returns a single sqlx.Row.
func (tx *Tx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return queryRowxContext(ctx, tx.cfg, tx.Tx, "sqlx.Tx.QueryRowx", query, args)
}

// QueryRowx is QueryRowxContext with the transaction's context.
func (tx *Tx) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return tx.QueryRowxContext(tx.context(), query, args...)
}

// ExecContext executes a query without returning rows.
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return execContext(ctx, tx.cfg, tx.Tx, query, args)
}

// Exec is ExecContext with the transaction's context.
func (tx *Tx) Exec(query string, args ...interface{}) (sql.Result, error) {
	return tx.ExecContext(tx.context(), query, args...)
}

// MustExecContext executes a query and panics on error.
func (tx *Tx) MustExecContext(ctx context.Context, query string, args ...interface{}) sql.Result {
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		panic(err)
	}
	return result
}

// MustExec is MustExecContext with the transaction's context.
func (tx *Tx) MustExec(query string, args ...interface{}) sql.Result {
	return tx.MustExecContext(tx.context(), query, args...)
}

// QueryContext executes a query and returns rows.
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return queryContext(ctx, tx.cfg, tx.Tx, query, args)
}

// Query is QueryContext with the transaction's context.
func (tx *Tx) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return tx.QueryContext(tx.context(), query, args...)
}

// QueryRowContext executes a query and returns a single row.
func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return queryRowContext(ctx, tx.cfg, tx.Tx, query, args)
}

// QueryRow is QueryRowContext with the transaction's context.
func (tx *Tx) QueryRow(query string, args ...interface{}) *sql.Row {
	return tx.QueryRowContext(tx.context(), query, args...)
}

// PrepareNamedContext prepares a named statement within the transaction.
func (tx *Tx) PrepareNamedContext(ctx context.Context, query string) (*NamedStmt, error) {
	var stmt *sqlx.NamedStmt
	err := tx.cfg.instrument(ctx, "sqlx.Tx.PrepareNamed", query, tx.cfg.annotateNamed,
		func(ctx context.Context, query string) error {
			var err error
			stmt, err = tx.Tx.PrepareNamedContext(ctx, query)
			return err
		})
	if err != nil {
		return nil, err
	}
	return &NamedStmt{NamedStmt: stmt, cfg: tx.cfg}, nil
}

// PrepareNamed prepares a named statement with the transaction's context.
func (tx *Tx) PrepareNamed(query string) (*NamedStmt, error) {
	return tx.PrepareNamedContext(tx.context(), query)
}

// PreparexContext prepares a statement within the transaction.
func (tx *Tx) PreparexContext(ctx context.Context, query string) (*Stmt, error) {
	var stmt *sqlx.Stmt
	var annotated string
	err := tx.cfg.instrument(ctx, "sqlx.Tx.Preparex", query, tx.cfg.annotate,
		func(ctx context.Context, query string) error {
			var err error
			annotated = query
			stmt, err = tx.Tx.PreparexContext(ctx, query)
			return err
		})
	if err != nil {
		return nil, err
	}
	return &Stmt{Stmt: stmt, cfg: tx.cfg, query: annotated}, nil
}

// Preparex prepares a statement with the transaction's context.
func (tx *Tx) Preparex(query string) (*Stmt, error) {
	return tx.PreparexContext(tx.context(), query)
}

// StmtxContext returns a transaction-specific version of stmt. The comment
// stmt was prepared with is kept.
func (tx *Tx) StmtxContext(ctx context.Context, stmt *Stmt) *Stmt {
	return &Stmt{
		Stmt:  tx.Tx.StmtxContext(ctx, stmt.Stmt),
		cfg:   tx.cfg,
		query: stmt.query,
	}
}

// Stmtx is StmtxContext with the transaction's context.
func (tx *Tx) Stmtx(stmt *Stmt) *Stmt {
	return tx.StmtxContext(tx.context(), stmt)
}

// NamedStmtContext returns a transaction-specific version of stmt.
func (tx *Tx) NamedStmtContext(ctx context.Context, stmt *NamedStmt) *NamedStmt {
	return &NamedStmt{
		NamedStmt: tx.Tx.NamedStmtContext(ctx, stmt.NamedStmt),
		cfg:       tx.cfg,
	}
}

// NamedStmt is NamedStmtContext with the transaction's context.
func (tx *Tx) NamedStmt(stmt *NamedStmt) *NamedStmt {
	return tx.NamedStmtContext(tx.context(), stmt)
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	return tx.cfg.instrumentOp(tx.context(), "COMMIT", func(context.Context) error {
		return tx.Tx.Commit()
	})
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	return tx.cfg.instrumentOp(tx.context(), "ROLLBACK", func(context.Context) error {
		return tx.Tx.Rollback()
	})
}

// Unsafe returns a version of Tx that silently ignores missing destination fields.
func (tx *Tx) Unsafe() *Tx {
	return &Tx{
		Tx:  tx.Tx.Unsafe(),
		cfg: tx.cfg,
		ctx: tx.ctx,
	}
}

func (tx *Tx) context() context.Context {
	if tx.ctx == nil {
		return context.Background()
	}
	return tx.ctx
}
