package sql

import (
	"context"
	"database/sql/driver"
)

// Compile-time interface checks.
var (
	_ driver.Conn               = (*conn)(nil)
	_ driver.ConnPrepareContext = (*conn)(nil)
	_ driver.ConnBeginTx        = (*conn)(nil)
	_ driver.ExecerContext      = (*conn)(nil)
	_ driver.QueryerContext     = (*conn)(nil)
	_ driver.Pinger             = (*conn)(nil)
	_ driver.SessionResetter    = (*conn)(nil)
	_ driver.Validator          = (*conn)(nil)
	_ driver.NamedValueChecker  = (*conn)(nil)
)

// conn wraps a driver.Conn, annotating every statement before it reaches
// the driver.
type conn struct {
	conn driver.Conn
	cfg  *config
}

// newConn creates a new annotating connection.
func newConn(c driver.Conn, cfg *config) *conn {
	return &conn{
		conn: c,
		cfg:  cfg,
	}
}

// Prepare implements driver.Conn.
// Only static components are available without a context.
func (c *conn) Prepare(query string) (driver.Stmt, error) {
	annotated := c.cfg.annotate(context.Background(), query)
	stmt, err := c.conn.Prepare(annotated)
	if err != nil {
		return nil, err
	}
	return newStmt(stmt, c.cfg, annotated), nil
}

// Close implements driver.Conn.
func (c *conn) Close() error {
	return c.conn.Close()
}

// Begin implements driver.Conn.
// Deprecated: Use BeginTx instead. This exists for driver.Conn interface compatibility.
func (c *conn) Begin() (driver.Tx, error) {
	tx, err := c.conn.Begin() //nolint:staticcheck // Required for driver.Conn interface
	if err != nil {
		return nil, err
	}
	return newTx(context.Background(), tx, c.cfg), nil
}

// PrepareContext implements driver.ConnPrepareContext.
// The statement is annotated with the components active now; executions of
// the prepared statement reuse that text.
func (c *conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	annotated := c.cfg.annotate(ctx, query)

	var stmt driver.Stmt
	var err error

	if preparer, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = preparer.PrepareContext(ctx, annotated)
	} else {
		stmt, err = c.conn.Prepare(annotated)
	}

	if err != nil {
		return nil, err
	}
	return newStmt(stmt, c.cfg, annotated), nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var tx driver.Tx
	err := c.cfg.instrumentOp(ctx, "BEGIN", func(ctx context.Context) error {
		var err error
		if beginner, ok := c.conn.(driver.ConnBeginTx); ok {
			tx, err = beginner.BeginTx(ctx, opts)
		} else {
			tx, err = c.conn.Begin() //nolint:staticcheck // Fallback for older drivers
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return newTx(ctx, tx, c.cfg), nil
}

// ExecContext implements driver.ExecerContext.
func (c *conn) ExecContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Result, error) {
	execer, ok := c.conn.(driver.ExecerContext)
	if !ok {
		// database/sql falls back to PrepareContext, which annotates.
		return nil, driver.ErrSkip
	}

	var result driver.Result
	err := c.cfg.instrument(ctx, query, c.cfg.annotate, func(ctx context.Context, query string) error {
		var err error
		result, err = execer.ExecContext(ctx, query, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryContext implements driver.QueryerContext.
func (c *conn) QueryContext(
	ctx context.Context,
	query string,
	args []driver.NamedValue,
) (driver.Rows, error) {
	queryer, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}

	var rows driver.Rows
	err := c.cfg.instrument(ctx, query, c.cfg.annotate, func(ctx context.Context, query string) error {
		var err error
		rows, err = queryer.QueryContext(ctx, query, args)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Ping implements driver.Pinger.
func (c *conn) Ping(ctx context.Context) error {
	pinger, ok := c.conn.(driver.Pinger)
	if !ok {
		return nil
	}
	return c.cfg.instrumentOp(ctx, "PING", pinger.Ping)
}

// ResetSession implements driver.SessionResetter.
func (c *conn) ResetSession(ctx context.Context) error {
	if resetter, ok := c.conn.(driver.SessionResetter); ok {
		return resetter.ResetSession(ctx)
	}
	return nil
}

// IsValid implements driver.Validator.
func (c *conn) IsValid() bool {
	if validator, ok := c.conn.(driver.Validator); ok {
		return validator.IsValid()
	}
	return true
}

// CheckNamedValue implements driver.NamedValueChecker.
func (c *conn) CheckNamedValue(value *driver.NamedValue) error {
	if checker, ok := c.conn.(driver.NamedValueChecker); ok {
		return checker.CheckNamedValue(value)
	}
	return driver.ErrSkip
}
