// internal/handlers/dashboard/validate-agent-access/handler.go
package validateagentaccess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"huusy-marketplace/internal/common/auth"
	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
)

const TaskType = "validate-agent-access"

var (
	ErrAgentAccessDenied = errors.New("AGENT_ACCESS_DENIED")
	ErrAgentCheckFailed  = errors.New("AGENT_CHECK_FAILED")
)

type agentKey struct{}

// AgentIDFromContext returns the agent id placed by Middleware.
func AgentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(agentKey{}).(string)
	return id, ok && id != ""
}

// WithAgentID stores id on ctx the way Middleware does.
func WithAgentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, agentKey{}, id)
}

type Handler struct {
	config *Config
	db     *sql.DB
	redis  redis.Cmdable
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

// NewHandler builds the handler. With a nil redis client every check hits Postgres.
func NewHandler(config *Config, db *sql.DB, rdb redis.Cmdable, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
	}
}

// Middleware admits only subjects that own a pro account. It must run after
// auth.Middleware.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			apperrors.WriteError(w, http.StatusUnauthorized, apperrors.NewAuthenticationError("missing claims"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
		output, err := h.execute(ctx, &Input{Subject: claims.Subject})
		cancel()
		if err != nil {
			stdErr := apperrors.NewAgentAccessDeniedError(claims.Subject)
			if errors.Is(err, ErrAgentCheckFailed) {
				stdErr = apperrors.New(apperrors.ErrCodeAgentCheckFailed, "Agent check failed", err)
			}
			metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
			h.errors.HandleRequestError(w, r, TaskType, stdErr)
			return
		}

		metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
		metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
		next.ServeHTTP(w, r.WithContext(WithAgentID(r.Context(), output.AgentID)))
	})
}

func cacheKey(subject string) string {
	return "agent:" + subject
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Subject == "" {
		return nil, ErrAgentAccessDenied
	}

	if cached, ok := h.fromCache(ctx, input.Subject); ok {
		return cached, nil
	}

	var (
		output   Output
		fullName sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `SELECT id, full_name FROM account_pro WHERE id = $1`, input.Subject).
		Scan(&output.AgentID, &fullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAgentAccessDenied
		}
		return nil, fmt.Errorf("%w: %v", ErrAgentCheckFailed, err)
	}
	output.FullName = fullName.String

	if h.redis != nil {
		data, _ := json.Marshal(output)
		if err := h.redis.Set(ctx, cacheKey(input.Subject), data, h.config.CacheTTL).Err(); err != nil {
			h.logger.Warn("failed to cache agent access", map[string]interface{}{
				"subject": input.Subject,
				"error":   err,
			})
		}
	}
	return &output, nil
}

// fromCache only ever holds confirmed agents. Redis errors count as a miss.
func (h *Handler) fromCache(ctx context.Context, subject string) (*Output, bool) {
	if h.redis == nil {
		return nil, false
	}
	val, err := h.redis.Get(ctx, cacheKey(subject)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("agent access cache read failed", map[string]interface{}{
				"subject": subject,
				"error":   err,
			})
		}
		return nil, false
	}
	var output Output
	if err := json.Unmarshal([]byte(val), &output); err != nil || output.AgentID == "" {
		return nil, false
	}
	output.Cached = true
	return &output, true
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
