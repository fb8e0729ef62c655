package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kroma-labs/marginalia-go/example/blog/internal/config"
	"github.com/kroma-labs/marginalia-go/example/blog/internal/database"
	"github.com/kroma-labs/marginalia-go/httpserver"
	ginmarginalia "github.com/kroma-labs/marginalia-go/httpserver/adapters/gin"
	"github.com/rs/zerolog"
)

// NewRouter returns the blog's HTTP handler.
func NewRouter(db *database.DB, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(
		ginmarginalia.RequestID(),
		ginmarginalia.Annotate(),
		ginmarginalia.Tracing(httpserver.TracingConfig{
			ServiceName: config.ServiceName,
			SkipPaths:   []string{"/livez"},
		}),
		ginmarginalia.Logger(httpserver.LoggerConfig{
			Logger:      logger,
			ServiceName: config.ServiceName,
			SkipPaths:   []string{"/livez"},
		}),
		ginmarginalia.Recovery(logger),
	)

	r.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	NewPosts(db, logger).Register(r)

	return r
}
