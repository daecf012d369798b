// internal/handlers/dashboard/manage-listing/handler.go
package managelisting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"huusy-marketplace/internal/common/database"
	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/messaging"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/common/validation"
	validateagentaccess "huusy-marketplace/internal/handlers/dashboard/validate-agent-access"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const TaskType = "manage-listing"

var (
	ErrInvalidInput          = errors.New("INVALID_REQUEST")
	ErrValidationFailed      = errors.New("LISTING_VALIDATION_FAILED")
	ErrListingNotFound       = errors.New("LISTING_NOT_FOUND")
	ErrDuplicatePath         = errors.New("DUPLICATE_LISTING_PATH")
	ErrDatabaseInsertFailed  = errors.New("DATABASE_INSERT_FAILED")
	ErrQueryExecutionFailed  = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout          = errors.New("QUERY_TIMEOUT")
	errMissingAgentInContext = errors.New("agent id missing from request context")
)

type Handler struct {
	config    *Config
	db        *sql.DB
	publisher messaging.Publisher
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	now       func() time.Time
}

// NewHandler builds the handler. A nil publisher drops events.
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

// List serves GET /api/v1/pro/listings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, OperationList, http.StatusOK, func(input *Input) error { return nil })
}

// Create serves POST /api/v1/pro/listings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, OperationCreate, http.StatusCreated, func(input *Input) error {
		input.Listing = &models.ListingInput{}
		return respond.DecodeJSON(r, input.Listing)
	})
}

// Update serves PUT /api/v1/pro/listings/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, OperationUpdate, http.StatusOK, func(input *Input) error {
		input.ListingID = chi.URLParam(r, "id")
		input.Listing = &models.ListingInput{}
		return respond.DecodeJSON(r, input.Listing)
	})
}

// Delete serves DELETE /api/v1/pro/listings/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, OperationDelete, http.StatusOK, func(input *Input) error {
		input.ListingID = chi.URLParam(r, "id")
		return nil
	})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, op Operation, status int, decode func(*Input) error) {
	startTime := time.Now()

	agentID, ok := validateagentaccess.AgentIDFromContext(r.Context())
	if !ok {
		h.fail(w, r, apperrors.NewAgentAccessDeniedError(""))
		return
	}

	input := &Input{Operation: op, AgentID: agentID}
	if err := decode(input); err != nil {
		h.fail(w, r, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(w, r, h.toStandardError(err, input))
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	_ = respond.JSON(w, status, output)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, stdErr *apperrors.StandardError) {
	metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleRequestError(w, r, TaskType, stdErr)
}

func (h *Handler) toStandardError(err error, input *Input) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, ErrValidationFailed):
		return apperrors.New(apperrors.ErrCodeListingValidation, "Listing validation failed", err)
	case errors.Is(err, ErrListingNotFound):
		return apperrors.NewListingNotFoundError(input.ListingID)
	case errors.Is(err, ErrDuplicatePath):
		return apperrors.New(apperrors.ErrCodeDuplicateListingPath, "Listing path already in use", err)
	case errors.Is(err, ErrDatabaseInsertFailed):
		return apperrors.New(apperrors.ErrCodeDatabaseInsertFailed, "Failed to save listing", err)
	case errors.Is(err, ErrQueryTimeout):
		return apperrors.NewQueryTimeoutError(TaskType)
	default:
		return apperrors.NewQueryExecutionFailedError(TaskType, err)
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input is required", ErrInvalidInput)
	}
	if input.AgentID == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, errMissingAgentInContext)
	}

	switch input.Operation {
	case OperationList:
		return h.list(ctx, input)
	case OperationCreate:
		return h.create(ctx, input)
	case OperationUpdate:
		return h.update(ctx, input)
	case OperationDelete:
		return h.delete(ctx, input)
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, input.Operation)
	}
}

func (h *Handler) list(ctx context.Context, input *Input) (*Output, error) {
	listings, err := queries.FetchListingsByAgent(ctx, h.db, input.AgentID, 0)
	if err != nil {
		return nil, h.wrapQueryError(ctx, ErrQueryExecutionFailed, err)
	}
	return &Output{Operation: OperationList, Listings: listings}, nil
}

func (h *Handler) validate(listing *models.ListingInput) error {
	if listing == nil {
		return fmt.Errorf("%w: listing body is required", ErrInvalidInput)
	}
	result, err := validation.ListingSchema.Validate(listing)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrValidationFailed, result.Error())
	}
	return nil
}

const insertListing = `
	INSERT INTO properties (
		id, property_name, path, excerpt, property_details, images,
		bathrooms, bedrooms, property_size, price, address,
		meta_title, meta_description,
		property_type_id, city_id, sale_type_id, agent_id,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)`

func (h *Handler) create(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validate(input.Listing); err != nil {
		return nil, err
	}

	in := input.Listing
	id := uuid.New().String()
	path := in.Path
	if path == "" {
		path = listingPath(in.PropertyName, id, h.config.PathSuffixLength)
	}
	now := h.now().UTC()

	_, err := h.db.ExecContext(ctx, insertListing,
		id, in.PropertyName, path, in.Excerpt, in.PropertyDetails, pq.StringArray(in.Images),
		in.Bathrooms, in.Bedrooms, in.PropertySize, in.Price, in.Address,
		in.MetaTitle, in.MetaDescription,
		in.PropertyTypeID, in.CityID, in.SaleTypeID, input.AgentID,
		now,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, path)
		}
		return nil, h.wrapQueryError(ctx, ErrDatabaseInsertFailed, err)
	}

	listing := toListing(id, path, input.AgentID, in, now)
	h.publish(ctx, models.EventListingCreated, id, input.AgentID)
	return &Output{Operation: OperationCreate, Listing: listing, ListingID: id}, nil
}

// An empty path keeps the stored one.
const updateListing = `
	UPDATE properties SET
		property_name = $1, path = COALESCE(NULLIF($2, ''), path), excerpt = $3,
		property_details = $4, images = $5, bathrooms = $6, bedrooms = $7,
		property_size = $8, price = $9, address = $10,
		meta_title = $11, meta_description = $12,
		property_type_id = $13, city_id = $14, sale_type_id = $15,
		updated_at = $16
	WHERE id = $17 AND agent_id = $18
	RETURNING path, created_at`

func (h *Handler) update(ctx context.Context, input *Input) (*Output, error) {
	if input.ListingID == "" {
		return nil, fmt.Errorf("%w: listing id is required", ErrInvalidInput)
	}
	if err := h.validate(input.Listing); err != nil {
		return nil, err
	}

	in := input.Listing
	now := h.now().UTC()
	var (
		path      string
		createdAt time.Time
	)
	err := h.db.QueryRowContext(ctx, updateListing,
		in.PropertyName, in.Path, in.Excerpt, in.PropertyDetails, pq.StringArray(in.Images),
		in.Bathrooms, in.Bedrooms, in.PropertySize, in.Price, in.Address,
		in.MetaTitle, in.MetaDescription,
		in.PropertyTypeID, in.CityID, in.SaleTypeID,
		now, input.ListingID, input.AgentID,
	).Scan(&path, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, input.ListingID)
		}
		if database.IsUniqueViolation(err, "") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePath, in.Path)
		}
		return nil, h.wrapQueryError(ctx, ErrQueryExecutionFailed, err)
	}

	listing := toListing(input.ListingID, path, input.AgentID, in, createdAt.UTC())
	listing.UpdatedAt = &now
	h.publish(ctx, models.EventListingUpdated, input.ListingID, input.AgentID)
	return &Output{Operation: OperationUpdate, Listing: listing, ListingID: input.ListingID}, nil
}

func (h *Handler) delete(ctx context.Context, input *Input) (*Output, error) {
	if input.ListingID == "" {
		return nil, fmt.Errorf("%w: listing id is required", ErrInvalidInput)
	}

	result, err := h.db.ExecContext(ctx,
		`DELETE FROM properties WHERE id = $1 AND agent_id = $2`, input.ListingID, input.AgentID)
	if err != nil {
		return nil, h.wrapQueryError(ctx, ErrQueryExecutionFailed, err)
	}
	if err := requireAffected(result, input.ListingID); err != nil {
		return nil, err
	}

	h.publish(ctx, models.EventListingDeleted, input.ListingID, input.AgentID)
	return &Output{Operation: OperationDelete, ListingID: input.ListingID}, nil
}

// requireAffected reports ErrListingNotFound when the statement touched no
// row, which is also the case for a listing owned by another agent.
func requireAffected(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrListingNotFound, id)
	}
	return nil
}

func (h *Handler) wrapQueryError(ctx context.Context, sentinel, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrQueryTimeout
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

// publish never fails the request; the listing is already saved.
func (h *Handler) publish(ctx context.Context, action models.EventAction, listingID, agentID string) {
	event := models.ListingEvent{
		ID:         uuid.New().String(),
		Action:     action,
		ListingID:  listingID,
		AgentID:    agentID,
		OccurredAt: h.now().UTC(),
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublished.WithLabelValues(string(action), "error").Inc()
		h.logger.Error("failed to publish listing event", map[string]interface{}{
			"action":    string(action),
			"listingId": listingID,
			"error":     err,
		})
		return
	}
	metrics.EventsPublished.WithLabelValues(string(action), "ok").Inc()
}

func toListing(id, path, agentID string, in *models.ListingInput, createdAt time.Time) *models.Listing {
	return &models.Listing{
		ID:              id,
		PropertyName:    in.PropertyName,
		Path:            path,
		Excerpt:         in.Excerpt,
		PropertyDetails: in.PropertyDetails,
		Images:          in.Images,
		Bathrooms:       in.Bathrooms,
		Bedrooms:        in.Bedrooms,
		PropertySize:    in.PropertySize,
		Price:           in.Price,
		Address:         in.Address,
		MetaTitle:       in.MetaTitle,
		MetaDescription: in.MetaDescription,
		PropertyTypeID:  in.PropertyTypeID,
		CityID:          in.CityID,
		SaleTypeID:      in.SaleTypeID,
		AgentID:         agentID,
		CreatedAt:       createdAt,
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
