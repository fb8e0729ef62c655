package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kroma-labs/marginalia-go/example/blog/internal/database"
	"github.com/kroma-labs/marginalia-go/httpserver"
	"github.com/rs/zerolog"
)

// Posts serves the posts resource. Its method names become the "action"
// component of the statements they run, and "Posts" the "controller".
type Posts struct {
	db     *database.DB
	logger zerolog.Logger
}

// NewPosts returns a Posts controller backed by db.
func NewPosts(db *database.DB, logger zerolog.Logger) *Posts {
	return &Posts{db: db, logger: logger}
}

// Register mounts the controller's routes on r.
func (p *Posts) Register(r gin.IRoutes) {
	r.GET("/posts", p.Index)
	r.GET("/posts/:id", p.Show)
	r.POST("/posts", p.Create)
	r.DELETE("/posts/:id", p.Delete)
}

func (p *Posts) Index(c *gin.Context) {
	posts, err := p.db.ListPosts(c.Request.Context())
	if err != nil {
		p.fail(c, err)
		return
	}
	httpserver.WriteSuccess(c.Writer, http.StatusOK, posts, "ok")
}

func (p *Posts) Show(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	post, err := p.db.GetPost(c.Request.Context(), id)
	if err != nil {
		p.fail(c, err)
		return
	}
	httpserver.WriteSuccess(c.Writer, http.StatusOK, post, "ok")
}

type createPostRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
}

func (p *Posts) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.WriteError(c.Writer, http.StatusBadRequest, "invalid request",
			httpserver.Error{Field: "body", Message: err.Error()})
		return
	}

	post := database.Post{Title: req.Title, Body: req.Body}
	id, err := p.db.CreatePost(c.Request.Context(), post)
	if err != nil {
		p.fail(c, err)
		return
	}
	post.ID = id
	httpserver.WriteSuccess(c.Writer, http.StatusCreated, post, "created")
}

func (p *Posts) Delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	if err := p.db.DeletePost(c.Request.Context(), id); err != nil {
		p.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpserver.WriteError(c.Writer, http.StatusBadRequest, "invalid request",
			httpserver.Error{Field: "id", Message: "must be an integer"})
		return 0, false
	}
	return id, true
}

func (p *Posts) fail(c *gin.Context, err error) {
	if errors.Is(err, database.ErrPostNotFound) {
		httpserver.WriteError(c.Writer, http.StatusNotFound, err.Error())
		return
	}
	p.logger.Error().Err(err).Str("path", c.FullPath()).Msg("database error")
	httpserver.WriteError(c.Writer, http.StatusInternalServerError, "internal server error")
}
