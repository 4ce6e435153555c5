// Package httpx provides the JSON response envelope shared by every endpoint.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Envelope is the uniform response body: a success flag, a human-readable
// message, and an optional data payload. Internal identifiers and stack
// traces never appear in it.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// FailWithData writes a failure envelope carrying a payload, used by token
// validation where the negative outcome still has a body.
func FailWithData(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: false, Message: message, Data: data})
}

// ErrMalformedBody indicates an unparseable request body.
var ErrMalformedBody = errors.New("malformed request body")

// DecodeJSON decodes the request body into target. An empty body decodes into
// the zero value so handlers can report missing fields themselves.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return ErrMalformedBody
	}
	return nil
}
