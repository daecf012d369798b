// internal/handlers/agents/get-agent/handler.go
package getagent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
)

const TaskType = "get-agent"

var (
	ErrInvalidInput         = errors.New("INVALID_REQUEST")
	ErrAgentNotFound        = errors.New("AGENT_NOT_FOUND")
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
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

// Handle serves GET /api/v1/agents/{id}?limit=N.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	input := &Input{AgentID: chi.URLParam(r, "id")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			stdErr := apperrors.NewInvalidRequestError(fmt.Sprintf("limit must be a non-negative integer, got %q", raw))
			metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
			h.errors.HandleRequestError(w, r, TaskType, stdErr)
			return
		}
		input.Limit = limit
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		var stdErr *apperrors.StandardError
		switch {
		case errors.Is(err, ErrInvalidInput):
			stdErr = apperrors.NewInvalidRequestError(err.Error())
		case errors.Is(err, ErrAgentNotFound):
			stdErr = apperrors.NewAgentNotFoundError(input.AgentID)
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
	if input == nil || strings.TrimSpace(input.AgentID) == "" {
		return nil, fmt.Errorf("%w: agent id is required", ErrInvalidInput)
	}

	agent, err := queries.FetchAgentByID(ctx, h.db, input.AgentID)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, input.AgentID)
		}
		return nil, h.wrapQueryError(ctx, err)
	}

	listings, err := queries.FetchListingsByAgent(ctx, h.db, agent.ID, input.Limit)
	if err != nil {
		return nil, h.wrapQueryError(ctx, err)
	}

	h.logger.Debug("agent loaded", map[string]interface{}{
		"agentId":  agent.ID,
		"listings": len(listings),
	})
	return &Output{Agent: agent, Listings: listings}, nil
}

func (h *Handler) wrapQueryError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrQueryTimeout
	}
	return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
