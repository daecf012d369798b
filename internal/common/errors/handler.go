// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"
	"time"

	"huusy-marketplace/internal/common/respond"
)

// ErrorHandler turns handler errors into JSON error responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error *StandardError `json:"error"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRequestError normalizes err, logs it and writes the response.
func (h *ErrorHandler) HandleRequestError(w http.ResponseWriter, r *http.Request, taskType string, err error) {
	stdErr := normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, taskType, status, stdErr)

	WriteError(w, status, stdErr)
}

// WriteError writes stdErr with the given status.
func WriteError(w http.ResponseWriter, status int, stdErr *StandardError) {
	_ = respond.JSON(w, status, ErrorResponse{Error: stdErr})
}

// normalizeError ensures we always have a StandardError
func normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(r *http.Request, taskType string, status int, stdErr *StandardError) {
	fields := map[string]interface{}{
		"taskType":      taskType,
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}
