package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrPostNotFound is returned when no post has the requested id.
var ErrPostNotFound = errors.New("post not found")

// Post is a blog post.
type Post struct {
	ID    int64  `db:"id"    json:"id"`
	Title string `db:"title" json:"title"`
	Body  string `db:"body"  json:"body"`
}

// Migrate creates the posts table if it doesn't exist.
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			body  TEXT NOT NULL DEFAULT ''
		);
	`)
	return err
}

// ListPosts returns all posts, oldest first.
func (db *DB) ListPosts(ctx context.Context) ([]Post, error) {
	posts := []Post{}
	if err := db.SelectContext(ctx, &posts, "SELECT id, title, body FROM posts ORDER BY id"); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns the post with the given id.
func (db *DB) GetPost(ctx context.Context, id int64) (Post, error) {
	var post Post
	err := db.GetContext(ctx, &post, "SELECT id, title, body FROM posts WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrPostNotFound
	}
	return post, err
}

// CreatePost stores p and returns its id.
func (db *DB) CreatePost(ctx context.Context, p Post) (int64, error) {
	res, err := db.NamedExecContext(ctx, "INSERT INTO posts (title, body) VALUES (:title, :body)", p)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeletePost removes the post with the given id in a transaction.
func (db *DB) DeletePost(ctx context.Context, id int64) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrPostNotFound
	}
	return tx.Commit()
}
