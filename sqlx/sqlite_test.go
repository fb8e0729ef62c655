package sqlx

import (
	"testing"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestSQLite_NamedQueriesWithColonValues(t *testing.T) {
	db, err := Open("sqlite", ":memory:",
		WithApplication("blog"),
		WithCommentOptions(comment.WithCaller()),
	)
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := requestContext(
		comment.Component{Name: "request_id", Value: "a:b:c"},
		comment.Component{Name: "action", Value: "*/ drop table posts; --"},
	)

	db.MustExecContext(ctx, "CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT)")

	_, err = db.NamedExecContext(ctx, "INSERT INTO posts (title) VALUES (:title)", post{Title: "first"})
	require.NoError(t, err)

	stmt, err := db.PrepareNamedContext(ctx, "INSERT INTO posts (title) VALUES (:title);")
	require.NoError(t, err)
	defer stmt.Close()
	_, err = stmt.ExecContext(ctx, post{Title: "second"})
	require.NoError(t, err)

	parsed, ok := comment.Parse(stmt.QueryString)
	require.True(t, ok)
	requestID, _ := parsed.Get("request_id")
	assert.Equal(t, "a:b:c", requestID)
	line, _ := parsed.Get("line")
	assert.Regexp(t, `^[^:]+\.go:\d+$`, line)

	var posts []post
	require.NoError(t, db.SelectContext(ctx, &posts, "SELECT id, title FROM posts ORDER BY id;"))
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[1].Title)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, "SELECT count(*) FROM posts"))
	assert.Equal(t, 2, count)
}
