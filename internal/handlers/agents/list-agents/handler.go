// internal/handlers/agents/list-agents/handler.go
package listagents

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
)

const TaskType = "list-agents"

var (
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

// Handle serves GET /api/v1/agents.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx)
	if err != nil {
		stdErr := apperrors.NewQueryExecutionFailedError(TaskType, err)
		if errors.Is(err, ErrQueryTimeout) {
			stdErr = apperrors.NewQueryTimeoutError(TaskType)
		}
		metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleRequestError(w, r, TaskType, stdErr)
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	_ = respond.JSON(w, http.StatusOK, output)
}

func (h *Handler) execute(ctx context.Context) (*Output, error) {
	agents, err := queries.FetchAgents(ctx, h.db)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	return &Output{Agents: agents, Total: len(agents)}, nil
}

func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	return h.execute(ctx)
}
