package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newMockDB opens an annotating DB on top of a fresh sqlmock connection.
// Queries are matched verbatim so the expectations spell out the comment.
func newMockDB(t *testing.T, opts ...Option) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	dsn := uuid.NewString()
	mockDB, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	drv, ok := WrapDriver(mockDB.Driver(), opts...).(driver.DriverContext)
	require.True(t, ok)
	connector, err := drv.OpenConnector(dsn)
	require.NoError(t, err)

	db := sql.OpenDB(connector)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeDriver is a minimal driver without the context fast paths, so
// database/sql has to prepare every statement.
type fakeDriver struct {
	mu       sync.Mutex
	prepared []string
}

func (d *fakeDriver) Open(string) (driver.Conn, error) {
	return &fakeConn{driver: d}, nil
}

func (d *fakeDriver) Prepared() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.prepared...)
}

type fakeConnector struct {
	driver *fakeDriver
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open("")
}

func (c *fakeConnector) Driver() driver.Driver {
	return c.driver
}

type fakeConn struct {
	driver *fakeDriver
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	c.driver.mu.Lock()
	c.driver.prepared = append(c.driver.prepared, query)
	c.driver.mu.Unlock()
	return fakeStmt{}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) { return fakeTx{}, nil }

type fakeStmt struct{}

func (fakeStmt) Close() error  { return nil }
func (fakeStmt) NumInput() int { return -1 }

func (fakeStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(1), nil
}

func (fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return fakeRows{}, nil
}

type fakeRows struct{}

func (fakeRows) Columns() []string         { return []string{"n"} }
func (fakeRows) Close() error              { return nil }
func (fakeRows) Next([]driver.Value) error { return io.EOF }

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
