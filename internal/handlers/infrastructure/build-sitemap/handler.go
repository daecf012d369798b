// internal/handlers/infrastructure/build-sitemap/handler.go
package buildsitemap

import (
	"context"
	"database/sql"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const TaskType = "build-sitemap"

var (
	ErrSitemapBuildFailed = errors.New("SITEMAP_BUILD_FAILED")
	ErrQueryTimeout       = errors.New("QUERY_TIMEOUT")
)

var staticRoutes = []string{
	"",
	"/properties",
	"/agents",
	"/properties/cities",
	"/properties/types",
	"/properties/search",
}

type route struct {
	prefix     string
	changeFreq string
	priority   float64
}

var entryRoutes = map[string]route{
	models.SitemapKindListing:      {"/properties/", ChangeDaily, 0.7},
	models.SitemapKindCity:         {"/properties/cities/", ChangeWeekly, 0.6},
	models.SitemapKindPropertyType: {"/properties/types/", ChangeWeekly, 0.6},
	models.SitemapKindAgent:        {"/agents/", ChangeWeekly, 0.5},
}

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	errors *apperrors.ErrorHandler
	now    func() time.Time
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
		now:    time.Now,
	}
}

// Handle serves GET /sitemap.xml.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	body, err := h.Render(ctx)
	if err != nil {
		stdErr := apperrors.New(apperrors.ErrCodeSitemapBuildFailed, "Failed to build sitemap", err)
		if errors.Is(err, ErrQueryTimeout) {
			stdErr = apperrors.NewQueryTimeoutError(TaskType)
		}
		metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleRequestError(w, r, TaskType, stdErr)
		return
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Render returns the encoded sitemap document.
func (h *Handler) Render(ctx context.Context) ([]byte, error) {
	set, err := h.execute(ctx)
	if err != nil {
		return nil, err
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSitemapBuildFailed, err)
	}
	return append([]byte(xml.Header), out...), nil
}

func (h *Handler) execute(ctx context.Context) (*URLSet, error) {
	entries, err := queries.FetchSitemapEntries(ctx, h.db)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrQueryTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSitemapBuildFailed, err)
	}

	base := strings.TrimRight(h.config.BaseURL, "/")
	now := h.now().UTC()

	set := &URLSet{XMLNS: sitemapNamespace, URLs: make([]URL, 0, len(staticRoutes)+len(entries))}
	for _, path := range staticRoutes {
		priority := 0.8
		if path == "" {
			priority = 1.0
		}
		set.URLs = append(set.URLs, URL{
			Loc:        base + path,
			LastMod:    lastMod(nil, now),
			ChangeFreq: ChangeDaily,
			Priority:   priority,
		})
	}

	for _, e := range entries {
		rt, ok := entryRoutes[e.Kind]
		if !ok || e.Path == "" {
			continue
		}
		set.URLs = append(set.URLs, URL{
			Loc:        base + rt.prefix + e.Path,
			LastMod:    lastMod(e.UpdatedAt, now),
			ChangeFreq: rt.changeFreq,
			Priority:   rt.priority,
		})
	}

	h.logger.Debug("sitemap built", map[string]interface{}{"urls": len(set.URLs)})
	return set, nil
}

func lastMod(t *time.Time, fallback time.Time) string {
	if t == nil || t.IsZero() {
		return fallback.Format(time.RFC3339)
	}
	return t.UTC().Format(time.RFC3339)
}

func (h *Handler) Execute(ctx context.Context) (*URLSet, error) {
	return h.execute(ctx)
}
