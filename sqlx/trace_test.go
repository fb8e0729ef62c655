package sqlx

import (
	"bytes"
	"context"
	"testing"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSQLXSpanName(t *testing.T) {
	tests := []struct {
		name   string
		method string
		query  string
		want   string
	}{
		{
			name:   "given method and query, then joins them",
			method: "sqlx.Get",
			query:  "select * from posts",
			want:   "sqlx.Get: SELECT",
		},
		{
			name:   "given method and empty query, then returns method",
			method: "sqlx.Get",
			want:   "sqlx.Get",
		},
		{
			name:  "given no method, then returns operation",
			query: "/* hint */ delete from posts",
			want:  "DELETE",
		},
		{
			name: "given neither, then returns SQL default",
			want: "SQL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlxSpanName(tt.method, tt.query))
		})
	}
}

func TestDefaultQuerySanitizer(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "given string and number literals, then replaces both",
			query: "SELECT * FROM posts WHERE title = 'x' AND id = 4",
			want:  "SELECT * FROM posts WHERE title = '?' AND id = ?",
		},
		{
			name:  "given hex literal, then replaces it",
			query: "SELECT * FROM blobs WHERE sum = 0xFF",
			want:  "SELECT * FROM blobs WHERE sum = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultQuerySanitizer(tt.query))
		})
	}
}

func TestConfig_AnnotateNamed(t *testing.T) {
	tests := []struct {
		name       string
		components []comment.Component
		query      string
		want       string
	}{
		{
			name:       "given colon in a value, then doubles it",
			components: []comment.Component{{Name: "line", Value: "app.go:7"}},
			query:      "INSERT INTO posts (title) VALUES (:title)",
			want:       "INSERT INTO posts (title) VALUES (:title) /*app=blog,line=app.go::7*/",
		},
		{
			name:  "given no colons, then matches the positional form",
			query: "UPDATE posts SET title = :title;",
			want:  "UPDATE posts SET title = :title /*app=blog*/;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(WithApplication("blog"))
			got := cfg.annotateNamed(requestContext(tt.components...), tt.query)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Annotate_Logs(t *testing.T) {
	var buf bytes.Buffer
	cfg := newConfig(
		WithApplication("blog"),
		WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)),
	)

	got := cfg.annotate(context.Background(), "SELECT 1")
	assert.Equal(t, "SELECT 1 /*app=blog*/", got)
	assert.Contains(t, buf.String(), `"message":"statement annotated"`)
	assert.Contains(t, buf.String(), `"query":"SELECT 1"`)

	buf.Reset()
	assert.Equal(t, got, cfg.annotate(context.Background(), got))
	assert.Empty(t, buf.String())
}

func TestConfig_QueryAttributes(t *testing.T) {
	cfg := newConfig(WithDisableQuery())
	got := attrMap(cfg.queryAttributes("SELECT 1 /*app=blog*/"))

	assert.NotContains(t, got, "db.statement")
	assert.Equal(t, "SELECT", got["db.operation"])
}
