package database_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/example/blog/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, logger zerolog.Logger) *database.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := database.New(context.Background(), dsn, logger)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPosts(t *testing.T) {
	db := newTestDB(t, zerolog.Nop())
	ctx := context.Background()

	id, err := db.CreatePost(ctx, database.Post{Title: "hello", Body: "first post"})
	require.NoError(t, err)
	_, err = db.CreatePost(ctx, database.Post{Title: "a:b*/c"})
	require.NoError(t, err)

	post, err := db.GetPost(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, database.Post{ID: id, Title: "hello", Body: "first post"}, post)

	posts, err := db.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a:b*/c", posts[1].Title)

	require.NoError(t, db.DeletePost(ctx, id))

	_, err = db.GetPost(ctx, id)
	assert.ErrorIs(t, err, database.ErrPostNotFound)
	assert.ErrorIs(t, db.DeletePost(ctx, id), database.ErrPostNotFound)
}

func TestPosts_Annotated(t *testing.T) {
	var buf bytes.Buffer
	db := newTestDB(t, zerolog.New(&buf).Level(zerolog.DebugLevel))
	buf.Reset()

	ctx := comment.NewContext(context.Background(), comment.NewRegistry(
		comment.Component{Name: comment.ControllerKey, Value: "posts"},
		comment.Component{Name: comment.ActionKey, Value: "index"},
	))

	_, err := db.ListPosts(ctx)
	require.NoError(t, err)

	assert.Regexp(t,
		`"annotated":"SELECT id, title, body FROM posts ORDER BY id `+
			`/\*app=blog,db_driver=sqlite,controller=posts,action=index,line=database/posts_test\.go:\d+\*/"`,
		buf.String())
}
