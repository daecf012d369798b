// internal/server/handlers.go
package server

import (
	"database/sql"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"huusy-marketplace/internal/common/cache"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/messaging"
	"huusy-marketplace/internal/common/observability"
	"huusy-marketplace/internal/models"

	getagent "huusy-marketplace/internal/handlers/agents/get-agent"
	listagents "huusy-marketplace/internal/handlers/agents/list-agents"
	listlookups "huusy-marketplace/internal/handlers/catalog/list-lookups"
	managelisting "huusy-marketplace/internal/handlers/dashboard/manage-listing"
	togglefavorite "huusy-marketplace/internal/handlers/dashboard/toggle-favorite"
	validateagentaccess "huusy-marketplace/internal/handlers/dashboard/validate-agent-access"
	qe "huusy-marketplace/internal/handlers/data-access/query-elasticsearch"
	qp "huusy-marketplace/internal/handlers/data-access/query-postgresql"
	buildsitemap "huusy-marketplace/internal/handlers/infrastructure/build-sitemap"
	notifyagent "huusy-marketplace/internal/handlers/infrastructure/notify-agent"
	synclistingindex "huusy-marketplace/internal/handlers/infrastructure/sync-listing-index"
	getlisting "huusy-marketplace/internal/handlers/listings/get-listing"
	searchlistings "huusy-marketplace/internal/handlers/listings/search-listings"
)

// Deps are the shared clients handlers are built from. Redis, Email and SMS
// may be nil.
type Deps struct {
	DB         *sql.DB
	ES         *elasticsearch.Client
	Redis      redis.Cmdable
	Publisher  messaging.Publisher
	Dispatcher *messaging.Dispatcher
	Email      notifyagent.EmailSender
	SMS        notifyagent.SMSSender
	Obs        *observability.Observability
}

// Handlers holds one instance per handler package.
type Handlers struct {
	SearchListings *searchlistings.Handler
	GetListing     *getlisting.Handler
	ListAgents     *listagents.Handler
	GetAgent       *getagent.Handler
	ListLookups    *listlookups.Handler
	AgentAccess    *validateagentaccess.Handler
	ManageListing  *managelisting.Handler
	ToggleFavorite *togglefavorite.Handler
	SyncIndex      *synclistingindex.Handler
	NotifyAgent    *notifyagent.Handler
	BuildSitemap   *buildsitemap.Handler
	QueryPostgres  *qp.Handler
	QuerySearch    *qe.Handler

	corpus  *cache.TwoTier[[]models.Listing]
	lookups *cache.TwoTier[[]models.Lookup]
}

// NewHandlers builds every handler from cfg and registers the event handlers
// on deps.Dispatcher when one is given.
func NewHandlers(cfg *config.Config, deps Deps, log logger.Logger) *Handlers {
	cacheOpts := cache.Options{
		KeyPrefix:    cfg.Cache.KeyPrefix,
		LocalMaxSize: cfg.Cache.LocalMaxSize,
		LocalTTL:     config.GetDuration(cfg.Cache.LocalTTL),
		RemoteTTL:    config.GetDuration(cfg.Cache.RemoteTTL),
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	index := cfg.Database.Elasticsearch.ListingIndex

	h := &Handlers{
		corpus:  cache.NewTwoTier[[]models.Listing]("listings", deps.Redis, cacheOpts, log),
		lookups: cache.NewTwoTier[[]models.Lookup]("lookups", deps.Redis, cacheOpts, log),
	}

	searchCfg := searchlistings.LoadConfig()
	searchCfg.Timeout = handlerTimeout(cfg, searchlistings.TaskType, searchCfg.Timeout)
	h.SearchListings = searchlistings.NewHandler(searchCfg, deps.DB, h.corpus, deps.Obs, log)

	qeCfg := qe.LoadConfig()
	qeCfg.Timeout = handlerTimeout(cfg, qe.TaskType, qeCfg.Timeout)
	if index != "" {
		qeCfg.Index = index
	}
	h.QuerySearch = qe.NewHandler(qeCfg, deps.ES, log)

	getListingCfg := getlisting.LoadConfig()
	getListingCfg.Timeout = handlerTimeout(cfg, getlisting.TaskType, getListingCfg.Timeout)
	h.GetListing = getlisting.NewHandler(getListingCfg, deps.DB, h.QuerySearch, log)

	listAgentsCfg := listagents.LoadConfig()
	listAgentsCfg.Timeout = handlerTimeout(cfg, listagents.TaskType, listAgentsCfg.Timeout)
	h.ListAgents = listagents.NewHandler(listAgentsCfg, deps.DB, log)

	getAgentCfg := getagent.LoadConfig()
	getAgentCfg.Timeout = handlerTimeout(cfg, getagent.TaskType, getAgentCfg.Timeout)
	h.GetAgent = getagent.NewHandler(getAgentCfg, deps.DB, log)

	lookupsCfg := listlookups.LoadConfig()
	lookupsCfg.Timeout = handlerTimeout(cfg, listlookups.TaskType, lookupsCfg.Timeout)
	h.ListLookups = listlookups.NewHandler(lookupsCfg, deps.DB, h.lookups, log)

	accessCfg := validateagentaccess.LoadConfig()
	accessCfg.Timeout = handlerTimeout(cfg, validateagentaccess.TaskType, accessCfg.Timeout)
	h.AgentAccess = validateagentaccess.NewHandler(accessCfg, deps.DB, deps.Redis, log)

	manageCfg := managelisting.LoadConfig()
	manageCfg.Timeout = handlerTimeout(cfg, managelisting.TaskType, manageCfg.Timeout)
	h.ManageListing = managelisting.NewHandler(manageCfg, deps.DB, publisher, log)

	favoriteCfg := togglefavorite.LoadConfig()
	favoriteCfg.Timeout = handlerTimeout(cfg, togglefavorite.TaskType, favoriteCfg.Timeout)
	h.ToggleFavorite = togglefavorite.NewHandler(favoriteCfg, deps.DB, publisher, log)

	syncCfg := synclistingindex.LoadConfig()
	syncCfg.Timeout = handlerTimeout(cfg, synclistingindex.TaskType, syncCfg.Timeout)
	if index != "" {
		syncCfg.Index = index
	}
	h.SyncIndex = synclistingindex.NewHandler(syncCfg, deps.DB, deps.ES, h.corpus, log)

	notifyCfg := notifyagent.LoadConfig()
	notifyCfg.Timeout = handlerTimeout(cfg, notifyagent.TaskType, notifyCfg.Timeout)
	notifyCfg.EmailEnabled = cfg.Integrations.AWS.SES.Enabled
	notifyCfg.SMSEnabled = cfg.Integrations.AWS.SNS.Enabled
	notifyCfg.SiteURL = cfg.Sitemap.BaseURL
	h.NotifyAgent = notifyagent.NewHandler(notifyCfg, deps.DB, deps.Email, deps.SMS, log)

	sitemapCfg := buildsitemap.LoadConfig()
	sitemapCfg.Timeout = handlerTimeout(cfg, buildsitemap.TaskType, sitemapCfg.Timeout)
	sitemapCfg.BaseURL = cfg.Sitemap.BaseURL
	h.BuildSitemap = buildsitemap.NewHandler(sitemapCfg, deps.DB, log)

	qpCfg := qp.LoadConfig()
	qpCfg.Timeout = handlerTimeout(cfg, qp.TaskType, qpCfg.Timeout)
	h.QueryPostgres = qp.NewHandler(qpCfg, deps.DB, log)

	if deps.Dispatcher != nil {
		if config.IsHandlerEnabled(cfg, synclistingindex.TaskType) {
			deps.Dispatcher.Register(h.SyncIndex)
		}
		if config.IsHandlerEnabled(cfg, notifyagent.TaskType) {
			deps.Dispatcher.Register(h.NotifyAgent)
		}
	}

	return h
}

// Close stops the local cache janitors.
func (h *Handlers) Close() {
	h.corpus.Stop()
	h.lookups.Stop()
}

// handlerTimeout prefers the handlers.<taskType>.timeout setting over def.
func handlerTimeout(cfg *config.Config, taskType string, def time.Duration) time.Duration {
	if hc, ok := cfg.Handlers[taskType]; ok && hc.Timeout > 0 {
		return config.GetDuration(hc.Timeout)
	}
	return def
}
