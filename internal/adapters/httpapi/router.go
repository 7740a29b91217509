package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"cbcgrab/internal/app"
	"cbcgrab/internal/domain"
	"cbcgrab/internal/ports"
)

type Server struct {
	logger   zerolog.Logger
	jobs     *app.JobService
	settings *app.SettingsService
	resolver *app.Resolver
	bus      ports.EventBus
	// resolveLimiter is optional; when set, maxConcurrentResolves changes
	// apply immediately.
	resolveLimiter *app.DynamicLimiter
	// onSettingsUpdated is optional (e.g. resize the worker pool).
	onSettingsUpdated func(domain.Settings)
}

func NewServer(logger zerolog.Logger, jobs *app.JobService, settings *app.SettingsService, resolver *app.Resolver, bus ports.EventBus, resolveLimiter *app.DynamicLimiter, onSettingsUpdated func(domain.Settings)) *Server {
	return &Server{
		logger:            logger,
		jobs:              jobs,
		settings:          settings,
		resolver:          resolver,
		bus:               bus,
		resolveLimiter:    resolveLimiter,
		onSettingsUpdated: onSettingsUpdated,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/events", s.handleEvents)

		if s.resolver != nil {
			NewResolveHandler(s.resolver).Routes(r)
		}
		if s.jobs != nil {
			NewJobsHandler(s.jobs).Routes(r)
		}
		if s.settings != nil {
			NewSettingsHandler(s.settings, func(updated domain.Settings) {
				if s.resolveLimiter != nil && updated.MaxConcurrentResolves > 0 {
					s.resolveLimiter.SetLimit(updated.MaxConcurrentResolves)
				}
				if s.onSettingsUpdated != nil {
					s.onSettingsUpdated(updated)
				}
			}).Routes(r)
		}
	})

	return r
}
