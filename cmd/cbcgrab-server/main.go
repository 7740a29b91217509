package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cbcgrab/internal/adapters/httpapi"
	"cbcgrab/internal/adapters/memorybus"
	"cbcgrab/internal/adapters/sqlite"
	"cbcgrab/internal/app"
	"cbcgrab/internal/buildinfo"
	"cbcgrab/internal/cache"
	"cbcgrab/internal/config"
	"cbcgrab/internal/domain"
	"cbcgrab/internal/fetch"
)

func main() {
	def := config.Default()
	addr := flag.String("addr", def.Addr, "Listen address (e.g. 127.0.0.1:8080)")
	dbPath := flag.String("db", def.DBPath, "SQLite path (e.g. cbcgrab.db)")
	cacheDir := flag.String("cache-dir", def.CacheDir, "Fetch cache directory")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "cbcgrab-server").Logger()
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	defer bus.Close()
	jobsRepo := sqlite.NewJobsRepository(db.SQL)
	jobsSvc := app.NewJobService(jobsRepo, bus)
	settingsRepo := sqlite.NewSettingsRepository(db.SQL)
	settingsSvc := app.NewSettingsService(settingsRepo)

	settings, err := settingsSvc.Get(ctx)
	if err != nil {
		settings = domain.DefaultSettings()
	}

	store, err := cache.New(*cacheDir, time.Duration(settings.CacheTTLSeconds)*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", *cacheDir).Msg("failed to init cache")
	}
	client := fetch.New(store, logger)
	resolver := app.NewResolver(logger, client, def.SiteURL, settings.DefaultShow)

	// Shared cap on concurrent resolutions, adjustable via the settings API.
	resolveLimiter := app.NewDynamicLimiter(settings.MaxConcurrentResolves)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	execs := app.NewExecutorRegistry(logger, resolver, resolveLimiter, client, settingsRepo)

	workers := settings.MaxWorkers
	pool := app.NewWorkerPool(shutdownCtx, logger, jobsRepo, bus, execs, app.DefaultWorkerOptions())
	pool.SetCount(workers)
	defer pool.Close()
	logger.Info().Int("workers", pool.Count()).Msg("workers started")

	srv := httpapi.NewServer(logger, jobsSvc, settingsSvc, resolver, bus, resolveLimiter, func(updated domain.Settings) {
		if updated.MaxWorkers > 0 {
			pool.SetCount(updated.MaxWorkers)
		}
	})
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
