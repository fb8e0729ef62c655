package gin_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	ginlib "github.com/gin-gonic/gin"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	ginmarginalia "github.com/kroma-labs/marginalia-go/httpserver/adapters/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	ginlib.SetMode(ginlib.TestMode)
}

type Posts struct {
	seen string
}

func (p *Posts) Show(c *ginlib.Context) {
	if reg, ok := comment.FromContext(c.Request.Context()); ok {
		p.seen = comment.Format(reg.Snapshot())
	}
	c.String(http.StatusOK, "ok")
}

func TestWrapMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("given httpserver middleware, when wrapped, then works with Gin", func(t *testing.T) {
		r := ginlib.New()

		middleware := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Custom", "test-value")
				next.ServeHTTP(w, req)
			})
		}

		r.Use(ginmarginalia.WrapMiddleware(middleware))
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "hello")
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "test-value", rec.Header().Get("X-Custom"))
		assert.Equal(t, "hello", rec.Body.String())
	})

	t.Run("given middleware that stops the chain, when wrapped, then Gin handlers do not run", func(t *testing.T) {
		r := ginlib.New()

		deny := func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})
		}

		var called bool
		r.Use(ginmarginalia.WrapMiddleware(deny))
		r.GET("/test", func(*ginlib.Context) { called = true })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, called)
	})
}

func TestAnnotate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "given matched route with method handler, then route controller and action are recorded",
			path: "/posts/42",
			want: "/*app=blog,request_id=req-1,method=GET,route=/posts/:id,controller=Posts,action=Show*/",
		},
		{
			name: "given unmatched route, then only request components are recorded",
			path: "/nowhere",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			posts := &Posts{}
			r := ginlib.New()
			r.Use(ginmarginalia.RequestID())
			r.Use(ginmarginalia.Annotate(httpserver.WithStaticComponent("app", "blog")))
			r.GET("/posts/:id", posts.Show)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(httpserver.RequestIDHeader, "req-1")
			r.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, posts.seen)
		})
	}
}

func TestAnnotate_PlainHandler(t *testing.T) {
	t.Parallel()

	var got string
	r := ginlib.New()
	r.Use(ginmarginalia.Annotate(httpserver.WithoutMethod()))
	r.GET("/feed", func(c *ginlib.Context) {
		httpserver.SetComponent(c.Request.Context(), "job", "feed")
		reg, ok := comment.FromContext(c.Request.Context())
		require.True(t, ok)
		got = comment.Format(reg.Snapshot())
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/feed", nil))

	assert.Equal(t, "/*route=/feed,action=TestAnnotate_PlainHandler,job=feed*/", got)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("given no request ID, when RequestID middleware applied, then generates ID", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginmarginalia.RequestID())
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, "ok")
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(httpserver.RequestIDHeader))
	})

	t.Run("given existing request ID, when RequestID middleware applied, then forwards ID", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginmarginalia.RequestID())
		r.GET("/test", func(c *ginlib.Context) {
			c.String(http.StatusOK, httpserver.RequestIDFromContext(c.Request.Context()))
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(httpserver.RequestIDHeader, "existing-id-123")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "existing-id-123", rec.Header().Get(httpserver.RequestIDHeader))
		assert.Equal(t, "existing-id-123", rec.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	t.Run("given handler panics, when Recovery middleware applied, then returns 500", func(t *testing.T) {
		r := ginlib.New()
		r.Use(ginmarginalia.Recovery(zerolog.Nop()))
		r.GET("/panic", func(*ginlib.Context) {
			panic("test panic")
		})

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := ginlib.New()
	r.Use(ginmarginalia.Annotate(httpserver.WithoutMethod()))
	r.Use(ginmarginalia.Logger(httpserver.LoggerConfig{Logger: zerolog.New(&buf)}))
	r.GET("/posts/:id", (&Posts{}).Show)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/1", nil))

	assert.Contains(t, buf.String(), `"status":200`)
	assert.Contains(t, buf.String(), `"sql_comment":"/*route=/posts/:id,controller=Posts,action=Show*/"`)
}

func TestTracing(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	r := ginlib.New()
	r.Use(ginmarginalia.Tracing(httpserver.TracingConfig{TracerProvider: tp}))
	r.GET("/test", func(c *ginlib.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP GET /test", spans[0].Name())
}

func TestRegisterPrometheus(t *testing.T) {
	t.Parallel()

	r := ginlib.New()
	ginmarginalia.RegisterPrometheus(r, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
