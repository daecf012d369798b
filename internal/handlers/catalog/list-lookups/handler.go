// internal/handlers/catalog/list-lookups/handler.go
package listlookups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"huusy-marketplace/internal/common/cache"
	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const TaskType = "list-lookups"

var (
	ErrInvalidLookupKind    = errors.New("INVALID_LOOKUP_KIND")
	ErrLookupNotFound       = errors.New("LOOKUP_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

type Handler struct {
	config *Config
	db     *sql.DB
	cache  *cache.TwoTier[[]models.Lookup]
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

// NewHandler builds the handler. A nil cache reads Postgres every time.
func NewHandler(config *Config, db *sql.DB, lookups *cache.TwoTier[[]models.Lookup], log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		cache:  lookups,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
	}
}

// Handle serves GET /api/v1/lookups/{kind} and /api/v1/lookups/{kind}/{path}.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	input := &Input{
		Kind: models.LookupKind(chi.URLParam(r, "kind")),
		Path: chi.URLParam(r, "path"),
	}
	output, err := h.execute(ctx, input)
	if err != nil {
		var stdErr *apperrors.StandardError
		switch {
		case errors.Is(err, ErrInvalidLookupKind):
			stdErr = apperrors.New(apperrors.ErrCodeInvalidLookupKind, "Invalid lookup kind", err)
		case errors.Is(err, ErrLookupNotFound):
			stdErr = apperrors.New(apperrors.ErrCodeLookupNotFound, "Lookup not found", err).
				WithMetadata("kind", string(input.Kind))
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
	if input == nil || input.Kind.Table() == "" {
		kind := models.LookupKind("")
		if input != nil {
			kind = input.Kind
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidLookupKind, kind)
	}

	lookups, err := h.load(ctx, input.Kind)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	if input.Path == "" {
		return &Output{Kind: input.Kind, Lookups: lookups}, nil
	}

	for i := range lookups {
		if lookups[i].Path == input.Path {
			found := lookups[i]
			return &Output{Kind: input.Kind, Lookup: &found}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrLookupNotFound, input.Kind, input.Path)
}

func (h *Handler) load(ctx context.Context, kind models.LookupKind) ([]models.Lookup, error) {
	load := func(ctx context.Context) ([]models.Lookup, error) {
		return queries.FetchLookups(ctx, h.db, kind)
	}
	if h.cache == nil {
		return load(ctx)
	}
	return h.cache.GetOrLoad(ctx, string(kind), load)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
