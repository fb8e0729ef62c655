package sqlx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

type post struct {
	ID    int    `db:"id"`
	Title string `db:"title"`
}

// newMockDB wraps a sqlmock connection whose expectations match the
// statement text exactly, comment included.
func newMockDB(t *testing.T, opts ...Option) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return NewDB(mockDB, "sqlmock", opts...), mock
}

func requestContext(components ...comment.Component) context.Context {
	return comment.NewContext(context.Background(), comment.NewRegistry(components...))
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		m[string(attr.Key)] = attr.Value.Emit()
	}
	return m
}
