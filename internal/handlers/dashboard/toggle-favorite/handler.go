// internal/handlers/dashboard/toggle-favorite/handler.go
package togglefavorite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"huusy-marketplace/internal/common/auth"
	"huusy-marketplace/internal/common/database"
	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/messaging"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const TaskType = "toggle-favorite"

var (
	ErrInvalidInput         = errors.New("INVALID_REQUEST")
	ErrListingNotFound      = errors.New("LISTING_NOT_FOUND")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

type Handler struct {
	config    *Config
	db        *sql.DB
	publisher messaging.Publisher
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	now       func() time.Time
}

func NewHandler(config *Config, db *sql.DB, publisher messaging.Publisher, log logger.Logger) *Handler {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		db:        db,
		publisher: publisher,
		logger:    l,
		errors:    apperrors.NewErrorHandler(l),
		now:       time.Now,
	}
}

// Toggle serves POST /api/v1/me/favorites/{listingId}.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, &Input{Operation: OperationToggle, ListingID: chi.URLParam(r, "listingId")})
}

// List serves GET /api/v1/me/favorites.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, &Input{Operation: OperationList})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, input *Input) {
	startTime := time.Now()

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		h.fail(w, r, apperrors.NewAuthenticationError("missing claims"))
		return
	}
	input.CustomerID = claims.Subject

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		var stdErr *apperrors.StandardError
		switch {
		case errors.Is(err, ErrInvalidInput):
			stdErr = apperrors.NewInvalidRequestError(err.Error())
		case errors.Is(err, ErrListingNotFound):
			stdErr = apperrors.NewListingNotFoundError(input.ListingID)
		case errors.Is(err, ErrDatabaseInsertFailed):
			stdErr = apperrors.New(apperrors.ErrCodeDatabaseInsertFailed, "Failed to save favorite", err)
		case errors.Is(err, ErrQueryTimeout):
			stdErr = apperrors.NewQueryTimeoutError(TaskType)
		default:
			stdErr = apperrors.NewQueryExecutionFailedError(TaskType, err)
		}
		h.fail(w, r, stdErr)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}

	switch input.Operation {
	case OperationList:
		favorites, err := queries.FetchCustomerFavorites(ctx, h.db, input.CustomerID)
		if err != nil {
			return nil, wrapQueryError(ctx, ErrQueryExecutionFailed, err)
		}
		return &Output{Operation: OperationList, Favorites: favorites}, nil
	case OperationToggle:
		if input.ListingID == "" {
			return nil, fmt.Errorf("%w: listing id is required", ErrInvalidInput)
		}
		return h.toggle(ctx, input)
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, input.Operation)
	}
}

func (h *Handler) toggle(ctx context.Context, input *Input) (*Output, error) {
	var favoriteID string
	err := h.db.QueryRowContext(ctx,
		`SELECT id FROM favorites WHERE property_id = $1 AND customer_id = $2`,
		input.ListingID, input.CustomerID,
	).Scan(&favoriteID)

	switch {
	case err == nil:
		if _, err := h.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = $1`, favoriteID); err != nil {
			return nil, wrapQueryError(ctx, ErrQueryExecutionFailed, err)
		}
		return &Output{Operation: OperationToggle, ListingID: input.ListingID, Favorited: false}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, wrapQueryError(ctx, ErrQueryExecutionFailed, err)
	}

	now := h.now().UTC()
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO favorites (id, property_id, customer_id, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), input.ListingID, input.CustomerID, now,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, input.ListingID)
		}
		// a concurrent toggle already added it
		if database.IsUniqueViolation(err, "") {
			return &Output{Operation: OperationToggle, ListingID: input.ListingID, Favorited: true}, nil
		}
		return nil, wrapQueryError(ctx, ErrDatabaseInsertFailed, err)
	}

	event := models.ListingEvent{
		ID:         uuid.New().String(),
		Action:     models.EventFavoriteAdded,
		ListingID:  input.ListingID,
		CustomerID: input.CustomerID,
		OccurredAt: now,
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Action), "error").Inc()
		h.logger.Error("failed to publish favorite event", map[string]interface{}{
			"listingId": input.ListingID,
			"error":     err,
		})
	} else {
		metrics.EventsPublished.WithLabelValues(string(event.Action), "ok").Inc()
	}

	return &Output{Operation: OperationToggle, ListingID: input.ListingID, Favorited: true}, nil
}

func wrapQueryError(ctx context.Context, sentinel, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrQueryTimeout
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
