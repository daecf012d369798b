// Package server exposes the marketplace handlers over HTTP.
package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"huusy-marketplace/internal/common/auth"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/common/respond"

	getagent "huusy-marketplace/internal/handlers/agents/get-agent"
	listagents "huusy-marketplace/internal/handlers/agents/list-agents"
	listlookups "huusy-marketplace/internal/handlers/catalog/list-lookups"
	managelisting "huusy-marketplace/internal/handlers/dashboard/manage-listing"
	togglefavorite "huusy-marketplace/internal/handlers/dashboard/toggle-favorite"
	qe "huusy-marketplace/internal/handlers/data-access/query-elasticsearch"
	qp "huusy-marketplace/internal/handlers/data-access/query-postgresql"
	buildsitemap "huusy-marketplace/internal/handlers/infrastructure/build-sitemap"
	synclistingindex "huusy-marketplace/internal/handlers/infrastructure/sync-listing-index"
	getlisting "huusy-marketplace/internal/handlers/listings/get-listing"
	searchlistings "huusy-marketplace/internal/handlers/listings/search-listings"
)

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	config    *config.Config
	handlers  *Handlers
	validator *auth.Validator
	checks    map[string]ReadinessCheck
	logger    logger.Logger
	router    chi.Router
	server    *http.Server
}

// New builds the router. checks back /ready.
func New(cfg *config.Config, handlers *Handlers, validator *auth.Validator, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	s := &Server{
		config:    cfg,
		handlers:  handlers,
		validator: validator,
		checks:    checks,
		logger:    log,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	h := s.handlers

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.Middleware())
	r.Use(recoverer(s.logger))
	if s.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(config.GetDuration(s.config.Server.RequestTimeout)))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/sitemap.xml", s.enabled(buildsitemap.TaskType, h.BuildSitemap.Handle))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/listings", s.enabled(searchlistings.TaskType, h.SearchListings.Handle))
		r.Get("/listings/{path}", s.enabled(getlisting.TaskType, h.GetListing.Handle))
		r.Get("/agents", s.enabled(listagents.TaskType, h.ListAgents.Handle))
		r.Get("/agents/{id}", s.enabled(getagent.TaskType, h.GetAgent.Handle))
		r.Get("/lookups/{kind}", s.enabled(listlookups.TaskType, h.ListLookups.Handle))
		r.Get("/lookups/{kind}/{path}", s.enabled(listlookups.TaskType, h.ListLookups.Handle))

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.validator))

			r.Route("/pro/listings", func(r chi.Router) {
				r.Use(h.AgentAccess.Middleware)
				r.Get("/", s.enabled(managelisting.TaskType, h.ManageListing.List))
				r.Post("/", s.enabled(managelisting.TaskType, h.ManageListing.Create))
				r.Put("/{id}", s.enabled(managelisting.TaskType, h.ManageListing.Update))
				r.Delete("/{id}", s.enabled(managelisting.TaskType, h.ManageListing.Delete))
			})

			r.Get("/me/favorites", s.enabled(togglefavorite.TaskType, h.ToggleFavorite.List))
			r.Post("/me/favorites/{listingId}", s.enabled(togglefavorite.TaskType, h.ToggleFavorite.Toggle))
		})
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(auth.Middleware(s.validator))
		r.Use(auth.RequireRole(auth.RoleAdmin))
		r.Post("/query", s.enabled(qp.TaskType, h.QueryPostgres.Handle))
		r.Post("/search", s.enabled(qe.TaskType, h.QuerySearch.Handle))
		r.Post("/reindex", s.enabled(synclistingindex.TaskType, h.SyncIndex.HandleReindex))
	})

	return r
}

func (s *Server) isEnabled(taskType string) bool {
	return config.IsHandlerEnabled(s.config, taskType)
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens on the configured port and blocks until the server stops.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  config.GetDuration(s.config.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(s.config.Server.WriteTimeout),
	}
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.server.Addr})
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = respond.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	_ = respond.JSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}
