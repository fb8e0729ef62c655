package sql

import (
	"context"
	"database/sql/driver"
)

// Compile-time interface checks.
var (
	_ driver.Stmt             = (*stmt)(nil)
	_ driver.StmtExecContext  = (*stmt)(nil)
	_ driver.StmtQueryContext = (*stmt)(nil)
)

// stmt wraps a prepared driver.Stmt. Its query is the annotated text the
// statement was prepared with; executions do not annotate again.
type stmt struct {
	stmt  driver.Stmt
	cfg   *config
	query string
}

// newStmt creates a new instrumented statement.
func newStmt(s driver.Stmt, cfg *config, query string) *stmt {
	return &stmt{
		stmt:  s,
		cfg:   cfg,
		query: query,
	}
}

// Close implements driver.Stmt.
func (s *stmt) Close() error {
	return s.stmt.Close()
}

// NumInput implements driver.Stmt.
func (s *stmt) NumInput() int {
	return s.stmt.NumInput()
}

// Exec implements driver.Stmt.
// Deprecated: Use ExecContext instead. This exists for driver.Stmt interface compatibility.
func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.stmt.Exec(args) //nolint:staticcheck // Required for driver.Stmt interface
}

// Query implements driver.Stmt.
// Deprecated: Use QueryContext instead. This exists for driver.Stmt interface compatibility.
func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.stmt.Query(args) //nolint:staticcheck // Required for driver.Stmt interface
}

// ExecContext implements driver.StmtExecContext.
func (s *stmt) ExecContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Result, error) {
	var result driver.Result
	err := s.cfg.instrument(ctx, s.query, nil, func(ctx context.Context, _ string) error {
		var err error
		if execer, ok := s.stmt.(driver.StmtExecContext); ok {
			result, err = execer.ExecContext(ctx, args)
		} else {
			result, err = s.stmt.Exec(namedValueToValue(args)) //nolint:staticcheck // Fallback for older drivers
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryContext implements driver.StmtQueryContext.
func (s *stmt) QueryContext(
	ctx context.Context,
	args []driver.NamedValue,
) (driver.Rows, error) {
	var rows driver.Rows
	err := s.cfg.instrument(ctx, s.query, nil, func(ctx context.Context, _ string) error {
		var err error
		if queryer, ok := s.stmt.(driver.StmtQueryContext); ok {
			rows, err = queryer.QueryContext(ctx, args)
		} else {
			rows, err = s.stmt.Query(namedValueToValue(args)) //nolint:staticcheck // Fallback for older drivers
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// namedValueToValue converts NamedValue slice to Value slice.
func namedValueToValue(named []driver.NamedValue) []driver.Value {
	values := make([]driver.Value, len(named))
	for i, nv := range named {
		values[i] = nv.Value
	}
	return values
}
