// internal/app/system/apiresp/apiresp.go
package apiresp

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard JSON response wrapper for all API endpoints.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError carries a machine-readable reason code, a human-readable
// message, and optional structured detail (remaining minutes, suggested
// groups, available actions). Business rejections must always include
// enough detail for the client to render an actionable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, statusCode int, code, message string) {
	ErrorWithDetails(w, statusCode, code, message, nil)
}

// ErrorWithDetails writes an error envelope with structured detail.
func ErrorWithDetails(w http.ResponseWriter, statusCode int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

// Common shorthands.

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, "validation_error", message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusForbidden, code, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "not_found", message)
}

func Conflict(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusConflict, code, message)
}

func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "internal_error", "An internal error occurred.")
}
