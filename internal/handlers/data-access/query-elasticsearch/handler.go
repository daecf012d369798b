// internal/handlers/data-access/query-elasticsearch/handler.go
package queryelasticsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-elasticsearch/queries"
	"huusy-marketplace/internal/models"
)

const (
	TaskType = "query-elasticsearch"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrSearchTimeout     = errors.New("SEARCH_TIMEOUT")
	ErrIndexNotFound     = errors.New("INDEX_NOT_FOUND")
	ErrInvalidQueryType  = errors.New("INVALID_QUERY_TYPE")
)

type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		client: client,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
	}
}

// Handle serves POST /internal/search.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var input Input
	if err := respond.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(w, r, h.mapError(input.QueryType, err))
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	_ = respond.JSON(w, http.StatusOK, output)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, stdErr *apperrors.StandardError) {
	metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleRequestError(w, r, TaskType, stdErr)
}

func (h *Handler) mapError(queryType string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidQueryType):
		return apperrors.New(apperrors.ErrCodeInvalidQueryType, "Unknown search query type", err)
	case errors.Is(err, ErrIndexNotFound):
		return apperrors.New(apperrors.ErrCodeIndexNotFound, "Search index not found", err)
	case errors.Is(err, ErrSearchTimeout):
		return apperrors.New(apperrors.ErrCodeSearchTimeout, "Search timeout", err)
	}
	return apperrors.NewSearchQueryFailedError(queryType, err)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	result, err := queries.Execute(ctx, h.client, queries.ListingQuery{
		Index:      h.config.Index,
		QueryType:  input.QueryType,
		Keywords:   input.Keywords,
		Filter:     input.Filters,
		ListingID:  input.ListingID,
		SaleTypeID: input.SaleTypeID,
		From:       input.Pagination.From,
		Size:       input.Pagination.Size,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrSearchTimeout
		}
		if errors.Is(err, queries.ErrUnknownQueryType) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQueryType, err)
		}
		if errors.Is(err, queries.ErrIndexNotFound) || errors.Is(err, queries.ErrMissingIndex) {
			return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}

	return &Output{
		Data:      result.Data,
		TotalHits: result.TotalHits,
		MaxScore:  result.MaxScore,
		Took:      result.Took,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// RelatedListings returns up to limit listings similar to l with the same
// sale type.
func (h *Handler) RelatedListings(ctx context.Context, l *models.Listing, limit int) ([]models.Listing, error) {
	output, err := h.execute(ctx, &Input{
		QueryType:  queries.QueryTypeRelatedListings,
		ListingID:  l.ID,
		SaleTypeID: l.SaleTypeID,
		Pagination: Pagination{Size: limit},
	})
	if err != nil {
		return nil, err
	}
	return output.Data, nil
}
