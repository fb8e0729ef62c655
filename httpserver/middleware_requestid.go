package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is the header key for request IDs.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds forwarded request IDs. They end up in every SQL
// comment of the request.
const maxRequestIDLen = 128

// requestIDKey is the context key for request ID.
type requestIDKey struct{}

// RequestID returns middleware that generates or forwards request IDs.
//
// Behavior:
//   - If X-Request-ID header holds a usable ID, use it
//   - Otherwise, generate a new UUID v4
//   - Add the ID to the response header
//   - Store the ID in the request context, where Annotate picks it up
//
// A forwarded ID is usable when it is at most 128 bytes of printable ASCII.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !validRequestID(id) {
				id = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext extracts the request ID from the context.
//
// Returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
