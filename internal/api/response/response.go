// Package response writes the JSON envelopes used by every API handler.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx reply. Hints carries near-miss
// set names when a query matched nothing.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Code    int      `json:"code"`
	Hints   []string `json:"hints,omitempty"`
}

// SuccessResponse wraps a 200 payload.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	// Headers are already sent; an encode failure can only be logged.
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("failed to encode response", "status", status, "error", err)
	}
}

// HTML writes a rendered page.
func HTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Success writes data inside the success envelope.
func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// Error writes err with the given status code and optional hints.
func Error(w http.ResponseWriter, status int, err error, hints ...string) {
	JSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
		Hints:   hints,
	})
}

// BadRequest is for malformed queries: unknown ranks, piece types or bodies.
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err)
}

// NoResults is for well-formed queries that matched no armor.
func NoResults(w http.ResponseWriter, err error, suggestions []string) {
	Error(w, http.StatusNotFound, err, suggestions...)
}

// NotFound is for unknown routes.
func NotFound(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, err)
}

// NotImplemented is for recognized thing types that are not served yet.
func NotImplemented(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotImplemented, err)
}

// InternalError writes a 500.
func InternalError(w http.ResponseWriter, err error) {
	Error(w, http.StatusInternalServerError, err)
}

// ServiceUnavailable is for queries made before the armor data has loaded.
func ServiceUnavailable(w http.ResponseWriter, err error) {
	Error(w, http.StatusServiceUnavailable, err)
}
