package httpserver

import (
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Response is the JSON envelope of every API response.
//
//	{"data": {"id": 1, "title": "hello"}, "message": "post created"}
//	{"errors": [{"field": "title", "message": "required"}], "message": "validation failed"}
type Response[T any] struct {
	Data    T       `json:"data,omitempty"`
	Errors  []Error `json:"errors,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Error represents a single field-level error.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fallbackBody is written when a response cannot be encoded.
var fallbackBody = []byte(`{"message":"internal server error"}` + "\n")

// WriteJSON writes response as JSON with the given status code.
//
// The body is encoded before any header is written, so an encoding failure
// is logged and answered with a 500 instead of a truncated body.
func WriteJSON[T any](w http.ResponseWriter, statusCode int, response Response[T]) {
	body, err := json.Marshal(response)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Error().
			Err(err).
			Int("status_code", statusCode).
			Msg("failed to encode JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(fallbackBody)
		return
	}

	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// WriteError writes a JSON error response.
//
//	httpserver.WriteError(w, http.StatusBadRequest,
//	    "validation failed",
//	    httpserver.Error{Field: "title", Message: "required"},
//	)
func WriteError(w http.ResponseWriter, statusCode int, message string, errors ...Error) {
	WriteJSON(w, statusCode, Response[any]{
		Errors:  errors,
		Message: message,
	})
}

// WriteSuccess writes a JSON response carrying data.
//
//	httpserver.WriteSuccess(w, http.StatusOK, post, "post retrieved")
func WriteSuccess[T any](w http.ResponseWriter, statusCode int, data T, message string) {
	WriteJSON(w, statusCode, Response[T]{
		Data:    data,
		Message: message,
	})
}
