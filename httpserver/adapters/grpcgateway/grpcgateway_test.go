package grpcgateway_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/kroma-labs/marginalia-go/httpserver"
	"github.com/kroma-labs/marginalia-go/httpserver/adapters/grpcgateway"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func commentOf(r *http.Request) string {
	reg, ok := comment.FromContext(r.Context())
	if !ok {
		return ""
	}
	return comment.Format(reg.Snapshot())
}

func TestWrapWithMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("given middleware, when wrapped, then applies to gwmux", func(t *testing.T) {
		gwmux := runtime.NewServeMux()

		middleware := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Custom", "test-value")
				next.ServeHTTP(w, r)
			})
		}

		handler := grpcgateway.WrapWithMiddleware(gwmux, middleware)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "test-value", rec.Header().Get("X-Custom"))
	})

	t.Run("given multiple middleware, when wrapped, then applies in order", func(t *testing.T) {
		gwmux := runtime.NewServeMux()

		var order []string
		trace := func(name string) httpserver.Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name+"-before")
					next.ServeHTTP(w, r)
					order = append(order, name+"-after")
				})
			}
		}

		handler := grpcgateway.WrapWithMiddleware(gwmux, trace("m1"), trace("m2"))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, []string{"m1-before", "m2-before", "m2-after", "m1-after"}, order)
	})
}

func TestRouteComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pattern     string
		annotate    bool
		httpPattern string
		path        string
		want        string
	}{
		{
			name:        "given single segment capture, then route is the declared template",
			pattern:     "/v1/posts/{id}",
			annotate:    true,
			httpPattern: "/v1/posts/{id}",
			path:        "/v1/posts/12",
			want:        "/*app=blog,request_id=req-1,method=GET,route=/v1/posts/{id}*/",
		},
		{
			name:        "given capture written with wildcard, then route uses the short form",
			pattern:     "/v1/posts/{id}",
			annotate:    true,
			httpPattern: "/v1/posts/{id=*}",
			path:        "/v1/posts/12",
			want:        "/*app=blog,request_id=req-1,method=GET,route=/v1/posts/{id}*/",
		},
		{
			name:        "given literal path, then route is the path",
			pattern:     "/v1/posts",
			annotate:    true,
			httpPattern: "/v1/posts",
			path:        "/v1/posts",
			want:        "/*app=blog,request_id=req-1,method=GET,route=/v1/posts*/",
		},
		{
			name:    "given handler that never annotates its context, then no route is recorded",
			pattern: "/v1/posts",
			path:    "/v1/posts",
			want:    "/*app=blog,request_id=req-1,method=GET*/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got string
			gwmux := runtime.NewServeMux(grpcgateway.RouteComponents())
			err := gwmux.HandlePath(http.MethodGet, tt.pattern,
				func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
					if tt.annotate {
						_, err := runtime.AnnotateContext(r.Context(), gwmux, r, "/blog.v1.Posts/GetPost",
							runtime.WithHTTPPathPattern(tt.httpPattern))
						if err != nil {
							w.WriteHeader(http.StatusInternalServerError)
							return
						}
					}
					got = commentOf(r)
					w.WriteHeader(http.StatusOK)
				})
			require.NoError(t, err)

			handler := grpcgateway.DefaultMiddleware(gwmux, nil, httpserver.WithStaticComponent("app", "blog"))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(httpserver.RequestIDHeader, "req-1")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouteComponents_WithoutAnnotate(t *testing.T) {
	t.Parallel()

	gwmux := runtime.NewServeMux(grpcgateway.RouteComponents())
	require.NoError(t, gwmux.HandlePath(http.MethodGet, "/v1/posts",
		func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			_, err := runtime.AnnotateContext(r.Context(), gwmux, r, "/blog.v1.Posts/ListPosts",
				runtime.WithHTTPPathPattern("/v1/posts"))
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))

	rec := httptest.NewRecorder()
	gwmux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDefaultMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("given logger, when applied, then adds RequestID and logs the comment", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		gwmux := runtime.NewServeMux(grpcgateway.RouteComponents())
		require.NoError(t, gwmux.HandlePath(http.MethodGet, "/v1/posts",
			func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
				_, err := runtime.AnnotateContext(r.Context(), gwmux, r, "/blog.v1.Posts/ListPosts",
					runtime.WithHTTPPathPattern("/v1/posts"))
				require.NoError(t, err)
				w.WriteHeader(http.StatusOK)
			}))

		handler := grpcgateway.DefaultMiddleware(gwmux, &logger, httpserver.WithoutRequestID())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/posts", nil))

		assert.NotEmpty(t, rec.Header().Get(httpserver.RequestIDHeader))
		assert.Contains(t, buf.String(), `"sql_comment":"/*method=GET,route=/v1/posts*/"`)
	})

	t.Run("given nil logger, when applied, then still works", func(t *testing.T) {
		handler := grpcgateway.DefaultMiddleware(runtime.NewServeMux(), nil)

		assert.NotPanics(t, func() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestWithTracing(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	baseHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := grpcgateway.WithTracing(baseHandler, httpserver.TracingConfig{TracerProvider: tp})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sr.Ended(), 1)
}

func TestCombinedMux(t *testing.T) {
	t.Parallel()

	newMuxes := func() (*runtime.ServeMux, *http.ServeMux) {
		httpmux := http.NewServeMux()
		httpmux.HandleFunc("/http", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("http-handler"))
		})
		return runtime.NewServeMux(), httpmux
	}

	t.Run("given grpc content-type, when requested, then routes to gwmux", func(t *testing.T) {
		gwmux, httpmux := newMuxes()
		handler := grpcgateway.CombinedMux(gwmux, httpmux)

		req := httptest.NewRequest(http.MethodPost, "/http", nil)
		req.Header.Set("Content-Type", "application/grpc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.GreaterOrEqual(t, rec.Code, 400)
		assert.NotEqual(t, "http-handler", rec.Body.String())
	})

	t.Run("given non-grpc content-type, when requested, then routes to httpmux", func(t *testing.T) {
		gwmux, httpmux := newMuxes()
		handler := grpcgateway.CombinedMux(gwmux, httpmux)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/http", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http-handler", rec.Body.String())
	})
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	t.Run("given full config, when a handler panics, then it is recovered and traced", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		logger := zerolog.Nop()
		tracingCfg := httpserver.TracingConfig{TracerProvider: tp}

		gwmux := runtime.NewServeMux()
		require.NoError(t, gwmux.HandlePath(http.MethodGet, "/v1/panic",
			func(http.ResponseWriter, *http.Request, map[string]string) {
				panic("boom")
			}))

		handler := grpcgateway.NewHandler(gwmux, grpcgateway.Config{
			Logger: &logger,
			Tracer: &tracingCfg,
		})

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Len(t, sr.Ended(), 1)
	})

	t.Run("given minimal config, when created, then handler adds request ID", func(t *testing.T) {
		handler := grpcgateway.NewHandler(runtime.NewServeMux(), grpcgateway.Config{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, rec.Header().Get(httpserver.RequestIDHeader))
	})
}
