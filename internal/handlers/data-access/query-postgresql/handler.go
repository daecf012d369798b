// internal/handlers/data-access/query-postgresql/handler.go
package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const (
	TaskType = "query-postgresql"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
	ErrInvalidQueryType     = errors.New("INVALID_QUERY_TYPE")
	ErrInvalidParams        = errors.New("INVALID_REQUEST")
	ErrRecordNotFound       = errors.New("RECORD_NOT_FOUND")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
	}
}

// Handle serves POST /internal/query.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var input Input
	if err := respond.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	h.logger.Info("processing query", map[string]interface{}{
		"queryType": input.QueryType,
	})

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(w, r, toStandardError(input.QueryType, err))
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	_ = respond.JSON(w, http.StatusOK, output)
}

func toStandardError(queryType string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(queryType)
	case errors.Is(err, ErrInvalidQueryType):
		return apperrors.New(apperrors.ErrCodeInvalidQueryType, "Unknown query type", err)
	case errors.Is(err, ErrInvalidParams):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrRecordNotFound):
		return notFoundError(models.QueryType(queryType), err)
	}
	return apperrors.NewQueryExecutionFailedError(queryType, err)
}

func notFoundError(queryType models.QueryType, err error) *apperrors.StandardError {
	switch queryType {
	case models.QueryTypeAgentByID:
		return apperrors.New(apperrors.ErrCodeAgentNotFound, "Agent not found", err)
	}
	return apperrors.New(apperrors.ErrCodeListingNotFound, "Listing not found", err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, stdErr *apperrors.StandardError) {
	metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleRequestError(w, r, TaskType, stdErr)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}

	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQueryType, input.QueryType)
	}

	params := input.Params
	if params == nil {
		params = make(map[string]interface{})
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.db, queryType, params)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		if errors.Is(err, queries.ErrMissingParam) || errors.Is(err, queries.ErrInvalidParam) ||
			errors.Is(err, queries.ErrUnknownLookupKind) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		if errors.Is(err, queries.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrRecordNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	return &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
