package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/shared"
	"github.com/eldoah/promo-hub/internal/validation"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Message   string        `json:"message,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	TotalCount int       `json:"total_count,omitempty"`
}

// writeJSON writes a successful envelope.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeBare(w, status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: getRequestID(r.Context()),
	})
}

// writeJSONList writes a list with its total count.
func writeJSONList[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	writeBare(w, http.StatusOK, JSONResponse{
		Success:   true,
		Data:      items,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC(), TotalCount: len(items)},
		RequestID: getRequestID(r.Context()),
	})
}

// writeJSONMessage writes a successful envelope with a message and no data.
func writeJSONMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeBare(w, status, JSONResponse{
		Success:   true,
		Message:   message,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: getRequestID(r.Context()),
	})
}

// writeJSONError writes an error envelope.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSONErrorWithDetails(w, r, status, code, message, nil)
}

// writeJSONErrorWithDetails writes an error envelope with details.
func writeJSONErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeBare(w, status, JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: getRequestID(r.Context()),
	})
}

// writeBare writes body as is. The counter endpoints use it to keep
// their flat response shapes.
func writeBare(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps a domain error to a status code. Internal errors are
// logged and reported with an opaque message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "validation_error", "Validation failed", verr.Fields)
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "validation_error", shared.Message(err, "Invalid request"))
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, "not_found", shared.Message(err, "Not found"))
	case shared.IsUnauthorized(err):
		writeJSONError(w, r, http.StatusUnauthorized, "unauthorized", shared.Message(err, "Unauthorized"))
	case shared.IsAlreadyExists(err):
		writeJSONError(w, r, http.StatusConflict, "conflict", shared.Message(err, "Already exists"))
	case errors.Is(err, shared.ErrRateLimited):
		writeJSONError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later")
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
			"error", err,
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING
// ══════════════════════════════════════════════════════════════════════════════

// decodeJSON reads a JSON body into dst and validates it.
// Malformed bodies are validation errors; unknown fields are ignored.
func (s *Server) decodeJSON(r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return shared.ValidationError("http", "Decode", "Content-Type must be application/json")
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return shared.ValidationError("http", "Decode", "Request body is empty")
		case errors.As(err, &maxErr):
			return shared.ValidationError("http", "Decode", fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))
		default:
			return shared.WrapError("http", "Decode", shared.ErrInvalidFormat, "Invalid JSON body", err)
		}
	}

	return s.validator.Validate(dst)
}
