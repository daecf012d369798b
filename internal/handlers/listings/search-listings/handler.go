// internal/handlers/listings/search-listings/handler.go
package searchlistings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"huusy-marketplace/internal/common/cache"
	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/observability"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
	"huusy-marketplace/internal/search"
)

const TaskType = "search-listings"

// CorpusCacheKey is the cache key holding the full listing corpus.
const CorpusCacheKey = "corpus"

var (
	ErrInvalidSearchParams  = errors.New("INVALID_SEARCH_PARAMS")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

type Handler struct {
	config *Config
	db     *sql.DB
	corpus *cache.TwoTier[[]models.Listing]
	obs    *observability.Observability
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

// NewHandler builds the handler. corpus and obs may be nil.
func NewHandler(config *Config, db *sql.DB, corpus *cache.TwoTier[[]models.Listing], obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		corpus: corpus,
		obs:    obs,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
	}
}

// Handle serves GET /api/v1/listings.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	input, err := ParseInput(r.URL.Query(), h.config)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordRequest(ctx, TaskType, "success")
	_ = respond.JSON(w, http.StatusOK, output)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var stdErr *apperrors.StandardError
	switch {
	case errors.Is(err, ErrInvalidSearchParams):
		stdErr = apperrors.NewInvalidSearchParamsError(err.Error())
	case errors.Is(err, ErrQueryTimeout):
		stdErr = apperrors.NewQueryTimeoutError(TaskType)
	default:
		stdErr = apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
	metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordRequest(r.Context(), TaskType, "failed")
	h.errors.HandleRequestError(w, r, TaskType, stdErr)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidSearchParams)
	}
	if input.Limit <= 0 {
		input.Limit = h.config.DefaultLimit
	}
	if input.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must be non-negative", ErrInvalidSearchParams)
	}

	filter := input.Filter
	if input.SaleType != "" && filter.SaleTypeID == "" {
		id, found, err := queries.FetchSaleTypeIDByTitle(ctx, h.db, input.SaleType)
		if err != nil {
			return nil, h.queryError(ctx, err)
		}
		if found {
			filter.SaleTypeID = id
		} else {
			h.logger.Debug("ignoring unknown sale type", map[string]interface{}{"saleType": input.SaleType})
		}
	}

	if len(search.Tokenize(input.Search)) == 0 {
		return h.browse(ctx, filter, input)
	}
	return h.searchCorpus(ctx, filter, input)
}

// browse pages through the SQL filter results, newest first.
func (h *Handler) browse(ctx context.Context, filter search.Filter, input *Input) (*Output, error) {
	listings, total, err := queries.FetchListingsFiltered(ctx, h.db, filter, input.Limit, input.Offset)
	if err != nil {
		return nil, h.queryError(ctx, err)
	}

	metrics.SearchResults.WithLabelValues("browse").Observe(float64(total))
	return &Output{
		Listings: listings,
		Total:    total,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}, nil
}

// searchCorpus runs the free-text search over the cached corpus.
func (h *Handler) searchCorpus(ctx context.Context, filter search.Filter, input *Input) (*Output, error) {
	corpus, err := h.loadCorpus(ctx)
	if err != nil {
		return nil, h.queryError(ctx, err)
	}

	ctx, span := h.obs.StartSpan(ctx, "search.Search",
		attribute.Int("corpus.size", len(corpus)),
		attribute.String("query", input.Search),
	)
	start := time.Now()

	candidates := corpus
	if !filter.IsZero() {
		candidates = filter.Apply(corpus)
	}
	results := search.Search(candidates, input.Search)
	target, ranked := search.RankTarget(search.Tokenize(input.Search))
	ranked = ranked && target > 0

	h.obs.RecordSearchDuration(ctx, time.Since(start), ranked)
	span.SetAttributes(attribute.Int("results", len(results)), attribute.Bool("ranked", ranked))
	span.End()

	metrics.SearchResults.WithLabelValues("text").Observe(float64(len(results)))

	return &Output{
		Listings: paginate(results, input.Offset, input.Limit),
		Total:    len(results),
		Limit:    input.Limit,
		Offset:   input.Offset,
		Ranked:   ranked,
	}, nil
}

func (h *Handler) loadCorpus(ctx context.Context) ([]models.Listing, error) {
	load := func(ctx context.Context) ([]models.Listing, error) {
		return queries.FetchListingCorpus(ctx, h.db)
	}
	if h.corpus == nil {
		return load(ctx)
	}
	return h.corpus.GetOrLoad(ctx, CorpusCacheKey, load)
}

func (h *Handler) queryError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrQueryTimeout
	}
	return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
}

func paginate(listings []models.Listing, offset, limit int) []models.Listing {
	if offset >= len(listings) {
		return []models.Listing{}
	}
	end := offset + limit
	if end > len(listings) {
		end = len(listings)
	}
	return listings[offset:end]
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
