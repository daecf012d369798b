// internal/handlers/infrastructure/sync-listing-index/handler.go
package synclistingindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/panjf2000/ants/v2"

	"huusy-marketplace/internal/common/cache"
	apperrors "huusy-marketplace/internal/common/errors"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"
	"huusy-marketplace/internal/handlers/data-access/query-elasticsearch/queries"
	pgqueries "huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	searchlistings "huusy-marketplace/internal/handlers/listings/search-listings"
	"huusy-marketplace/internal/models"
)

const TaskType = "sync-listing-index"

const (
	OperationIndexed = "indexed"
	OperationDeleted = "deleted"
	OperationSkipped = "skipped"
)

var (
	ErrIndexSyncFailed = errors.New("INDEX_SYNC_FAILED")
	ErrInvalidEvent    = errors.New("INVALID_EVENT")
)

// maxReportedErrors caps ReindexResult.Errors.
const maxReportedErrors = 20

type Handler struct {
	config *Config
	db     *sql.DB
	es     *elasticsearch.Client
	corpus *cache.TwoTier[[]models.Listing]
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

// NewHandler builds the handler. corpus may be nil.
func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, corpus *cache.TwoTier[[]models.Listing], log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		es:     es,
		corpus: corpus,
		logger: l,
		errors: apperrors.NewErrorHandler(l),
	}
}

// HandleEvent implements messaging.EventHandler.
func (h *Handler) HandleEvent(ctx context.Context, event models.ListingEvent) error {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	result, err := h.execute(ctx, event)
	if err != nil {
		metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(apperrors.ErrCodeIndexSyncFailed)).Inc()
		return err
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.logger.Info("listing index synced", map[string]interface{}{
		"action":    result.Action,
		"listingId": result.ListingID,
		"operation": result.Operation,
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, event models.ListingEvent) (*SyncResult, error) {
	result := &SyncResult{Action: string(event.Action), ListingID: event.ListingID, Operation: OperationSkipped}
	if !event.IsListingChange() {
		return result, nil
	}
	if event.ListingID == "" {
		return nil, fmt.Errorf("%w: listing id is required", ErrInvalidEvent)
	}

	// Free-text search reads the corpus, so every change drops it even if
	// the index write below fails.
	h.invalidateCorpus(ctx)

	if event.Action == models.EventListingDeleted {
		if err := queries.DeleteListing(ctx, h.es, h.config.Index, event.ListingID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexSyncFailed, err)
		}
		result.Operation = OperationDeleted
		return result, nil
	}

	listing, err := pgqueries.FetchListingByID(ctx, h.db, event.ListingID)
	if err != nil {
		if errors.Is(err, pgqueries.ErrNotFound) {
			// deleted before the event arrived
			if err := queries.DeleteListing(ctx, h.es, h.config.Index, event.ListingID); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrIndexSyncFailed, err)
			}
			result.Operation = OperationDeleted
			return result, nil
		}
		return nil, fmt.Errorf("%w: load listing: %v", ErrIndexSyncFailed, err)
	}

	if err := queries.IndexListing(ctx, h.es, h.config.Index, *listing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexSyncFailed, err)
	}
	result.Operation = OperationIndexed
	return result, nil
}

func (h *Handler) invalidateCorpus(ctx context.Context) {
	if h.corpus != nil {
		h.corpus.Delete(ctx, searchlistings.CorpusCacheKey)
	}
}

// Reindex ensures the index exists and writes every listing to it through a
// bounded worker pool. Individual failures are counted, not returned.
func (h *Handler) Reindex(ctx context.Context) (*ReindexResult, error) {
	startTime := time.Now()

	if err := queries.EnsureIndex(ctx, h.es, h.config.Index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexSyncFailed, err)
	}

	listings, err := pgqueries.FetchListingCorpus(ctx, h.db)
	if err != nil {
		return nil, fmt.Errorf("%w: load listings: %v", ErrIndexSyncFailed, err)
	}

	workers := h.config.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("%w: worker pool: %v", ErrIndexSyncFailed, err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		indexed  atomic.Int64
		failed   atomic.Int64
		mu       sync.Mutex
		failures []string
	)
	recordFailure := func(id string, err error) {
		failed.Add(1)
		h.logger.Warn("failed to index listing", map[string]interface{}{"listingId": id, "error": err})
		mu.Lock()
		if len(failures) < maxReportedErrors {
			failures = append(failures, fmt.Sprintf("%s: %v", id, err))
		}
		mu.Unlock()
	}

	for i := range listings {
		listing := listings[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := queries.IndexListing(ctx, h.es, h.config.Index, listing); err != nil {
				recordFailure(listing.ID, err)
				return
			}
			indexed.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			recordFailure(listing.ID, submitErr)
		}
	}
	wg.Wait()

	h.invalidateCorpus(ctx)

	result := &ReindexResult{
		Total:    len(listings),
		Indexed:  indexed.Load(),
		Failed:   failed.Load(),
		Duration: time.Since(startTime).Round(time.Millisecond).String(),
		Errors:   failures,
	}
	h.logger.Info("reindex finished", map[string]interface{}{
		"total":   result.Total,
		"indexed": result.Indexed,
		"failed":  result.Failed,
	})
	return result, nil
}

// HandleReindex serves POST /internal/reindex.
func (h *Handler) HandleReindex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.config.ReindexTimeout)
	defer cancel()

	result, err := h.Reindex(ctx)
	if err != nil {
		stdErr := apperrors.New(apperrors.ErrCodeIndexSyncFailed, "Reindex failed", err)
		metrics.HandlerRequestsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleRequestError(w, r, TaskType, stdErr)
		return
	}
	_ = respond.JSON(w, http.StatusOK, result)
}

func (h *Handler) Execute(ctx context.Context, event models.ListingEvent) (*SyncResult, error) {
	return h.execute(ctx, event)
}
