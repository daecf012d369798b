// Package errors provides standardized error handling for the marketplace HTTP API.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeInvalidSearchParams ErrorCode = "INVALID_SEARCH_PARAMS"
	ErrCodeInvalidLookupKind   ErrorCode = "INVALID_LOOKUP_KIND"
	ErrCodeInvalidQueryType    ErrorCode = "INVALID_QUERY_TYPE"
	ErrCodeListingValidation   ErrorCode = "LISTING_VALIDATION_FAILED"

	ErrCodeListingNotFound ErrorCode = "LISTING_NOT_FOUND"
	ErrCodeAgentNotFound   ErrorCode = "AGENT_NOT_FOUND"
	ErrCodeLookupNotFound  ErrorCode = "LOOKUP_NOT_FOUND"

	ErrCodeDuplicateListingPath ErrorCode = "DUPLICATE_LISTING_PATH"

	ErrCodeAuthentication    ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeAgentAccessDenied ErrorCode = "AGENT_ACCESS_DENIED"
	ErrCodeAgentCheckFailed  ErrorCode = "AGENT_CHECK_FAILED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeIndexSyncFailed   ErrorCode = "INDEX_SYNC_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEventPublishFailed     ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeSitemapBuildFailed     ErrorCode = "SITEMAP_BUILD_FAILED"

	ErrCodeHandlerDisabled ErrorCode = "HANDLER_DISABLED"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// New builds a StandardError for code. err may be nil.
func New(code ErrorCode, message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request decoding error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSearchParamsError creates a non-retryable search parameter error.
func NewInvalidSearchParamsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSearchParams,
		Message:   "Invalid search parameters",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewListingNotFoundError(ref string) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingNotFound,
		Message:   "Listing not found",
		Details:   fmt.Sprintf("listing: %s", ref),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAgentNotFoundError(agentID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentNotFound,
		Message:   "Agent not found",
		Details:   fmt.Sprintf("agentId: %s", agentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAgentAccessDeniedError(subject string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAgentAccessDenied,
		Message:   "Pro account required",
		Details:   fmt.Sprintf("subject: %s", subject),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHandlerDisabledError reports a route whose handler is switched off in config.
func NewHandlerDisabledError(taskType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHandlerDisabled,
		Message:   "Handler is disabled",
		Details:   fmt.Sprintf("taskType: %s", taskType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

var httpStatusMapping = map[ErrorCode]int{
	ErrCodeInvalidRequest:           http.StatusBadRequest,
	ErrCodeInvalidSearchParams:      http.StatusBadRequest,
	ErrCodeInvalidLookupKind:        http.StatusBadRequest,
	ErrCodeInvalidQueryType:         http.StatusBadRequest,
	ErrCodeListingValidation:        http.StatusBadRequest,
	ErrCodeListingNotFound:          http.StatusNotFound,
	ErrCodeAgentNotFound:            http.StatusNotFound,
	ErrCodeLookupNotFound:           http.StatusNotFound,
	ErrCodeDuplicateListingPath:     http.StatusConflict,
	ErrCodeAuthentication:           http.StatusUnauthorized,
	ErrCodeAgentAccessDenied:        http.StatusForbidden,
	ErrCodeAgentCheckFailed:         http.StatusInternalServerError,
	ErrCodeForbidden:                http.StatusForbidden,
	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeQueryTimeout:             http.StatusGatewayTimeout,
	ErrCodeDatabaseInsertFailed:     http.StatusInternalServerError,
	ErrCodeSearchQueryFailed:        http.StatusBadGateway,
	ErrCodeSearchTimeout:            http.StatusGatewayTimeout,
	ErrCodeIndexNotFound:            http.StatusInternalServerError,
	ErrCodeIndexSyncFailed:          http.StatusInternalServerError,
	ErrCodeNotificationSendFailed:   http.StatusBadGateway,
	ErrCodeEventPublishFailed:       http.StatusInternalServerError,
	ErrCodeSitemapBuildFailed:       http.StatusInternalServerError,
	ErrCodeHandlerDisabled:          http.StatusServiceUnavailable,
	ErrCodeInternal:                 http.StatusInternalServerError,
}

// HTTPStatus returns the response status for code. Unknown codes map to 500.
func HTTPStatus(code ErrorCode) int {
	if status, ok := httpStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeAgentCheckFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeQueryTimeout,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeSearchTimeout,
		ErrCodeIndexSyncFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeEventPublishFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "AUTH") || codeStr == "FORBIDDEN" || strings.Contains(codeStr, "ACCESS") || strings.HasPrefix(codeStr, "AGENT_CHECK"):
		return "AUTH"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "DUPLICATE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "EVENT"):
		return "MESSAGING"
	default:
		return "OTHER"
	}
}
