// Package web holds the JSON request and response plumbing shared by the
// HTTP handlers.
package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// MalformedBodyError reports a request body that is not valid JSON
type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	return "Invalid JSON body: " + e.Err.Error()
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is returned by the delete endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

// internalErrorBody is written when a response cannot be encoded
const internalErrorBody = `{"detail":"Internal server error"}` + "\n"

// WriteJSON writes v with the given status code. The body is encoded before
// the header goes out; an unencodable value is logged and sent as a 500.
func WriteJSON(w http.ResponseWriter, r *http.Request, log *logger.Logger, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error("response_encoding_failed", "Failed to encode response", RequestID(r), err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(internalErrorBody))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Debug("response_write_failed", "Failed to write response", RequestID(r), map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// WriteError maps err onto a status code and a {"detail": ...} body.
// Unrecognized errors are logged and reported as 500.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status, detail := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request_failed", "Unhandled error", RequestID(r), err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}
	WriteJSON(w, r, log, status, ErrorResponse{Detail: detail})
}

// StatusFor classifies err
func StatusFor(err error) (int, string) {
	var (
		notFound   *models.NotFoundError
		conflict   *models.ConflictError
		malformed  *MalformedBodyError
		validation models.ValidationErrors
		field      models.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Error()
	case errors.As(err, &malformed):
		return http.StatusBadRequest, malformed.Error()
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity, validation.Error()
	case errors.As(err, &field):
		return http.StatusUnprocessableEntity, field.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// RequestID returns the id assigned by the RequestID middleware
func RequestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
