// internal/handlers/listings/get-listing/handler.go
package getlisting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const TaskType = "get-listing"

var (
	ErrInvalidPath          = errors.New("INVALID_REQUEST")
	ErrListingNotFound      = errors.New("LISTING_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

// RelatedFinder finds listings similar to a given one.
type RelatedFinder interface {
	RelatedListings(ctx context.Context, l *models.Listing, limit int) ([]models.Listing, error)
}

type Handler struct {
	config  *Config
	db      *sql.DB
	related RelatedFinder
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

// NewHandler builds the handler. With a nil related finder, related
// listings always come from Postgres.
func NewHandler(config *Config, db *sql.DB, related RelatedFinder, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		db:      db,
		related: related,
		logger:  l,
		errors:  apperrors.NewErrorHandler(l),
	}
}

// Handle serves GET /api/v1/listings/{path}.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	input := &Input{Path: chi.URLParam(r, "path")}
	output, err := h.execute(ctx, input)
	if err != nil {
		var stdErr *apperrors.StandardError
		switch {
		case errors.Is(err, ErrInvalidPath):
			stdErr = apperrors.NewInvalidRequestError(err.Error())
		case errors.Is(err, ErrListingNotFound):
			stdErr = apperrors.NewListingNotFoundError(input.Path)
		case errors.Is(err, ErrQueryTimeout):
			stdErr = apperrors.NewQueryTimeoutError(TaskType)
		default:
			stdErr = apperrors.NewQueryExecutionFailedError(TaskType, err)
		}
		metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleRequestError(w, r, TaskType, stdErr)
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	_ = respond.JSON(w, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.Path) == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidPath)
	}

	listing, err := queries.FetchListingByPath(ctx, h.db, input.Path)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, input.Path)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	related, source := h.relatedListings(ctx, listing)
	return &Output{
		Listing:       listing,
		Related:       related,
		RelatedSource: source,
	}, nil
}

// relatedListings asks the search index first and falls back to the same
// sale type in Postgres. Failures degrade to an empty list.
func (h *Handler) relatedListings(ctx context.Context, l *models.Listing) ([]models.Listing, string) {
	limit := h.config.RelatedLimit

	if h.related != nil {
		found, err := h.related.RelatedListings(ctx, l, limit)
		if err != nil {
			h.logger.Warn("related listing search failed, using database", map[string]interface{}{
				"listingId": l.ID,
				"error":     err,
			})
		} else if found = withoutListing(found, l.ID, limit); len(found) > 0 {
			return found, RelatedSourceSearch
		}
	}

	if l.SaleTypeID == "" {
		return []models.Listing{}, ""
	}

	found, err := queries.FetchRelatedListings(ctx, h.db, l.SaleTypeID, l.ID, limit)
	if err != nil {
		h.logger.Warn("related listing query failed", map[string]interface{}{
			"listingId": l.ID,
			"error":     err,
		})
		return []models.Listing{}, ""
	}
	return found, RelatedSourceDatabase
}

// withoutListing drops id from listings and keeps at most limit entries.
func withoutListing(listings []models.Listing, id string, limit int) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ID == id {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, l)
	}
	return out
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
