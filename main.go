package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"eventmappr/core"
	"eventmappr/pkg/resources"
	"eventmappr/pkg/servers"
)

func main() {
	var err error

	name, version := "eventmappr", "1.0"

	// 1. Config (Logger base included)
	ctx, cfg, err := resources.Default(context.Background(), name, version)
	startupLogger := log.Ctx(ctx).With().Str("stage", "startup").Str("component", "main").Logger()
	shutdownLogger := log.Ctx(ctx).With().Str("stage", "shut down").Str("component", "main").Logger()

	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to load configuration")
	}

	startupLogger.Info().Msg("application starting up")
	defer shutdownLogger.Info().Msg("application stopped")

	hookFn := func(ctx context.Context) (context.Context, error) {
		log.Logger = log.Logger.Hook(resources.NewOtelLogHook(name, version))
		return log.Logger.WithContext(ctx), nil
	}

	// 2. Telemetry (traces/metrics/logs), zerolog keeps printing to stdout and is also exported via OTLP
	ctx, stopFn, err := resources.Observe(ctx, name, version, cfg, hookFn)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to setup otel telemetry")
	}
	defer stopFn(ctx, 15*time.Second)

	// 3. Event store
	var slots core.SlotStore

	var closables []resources.Closable

	switch cfg.StoreDriver {
	case "postgres":
		pool, err := resources.CreateDatabaseConnectionPool(ctx, cfg)
		if err != nil {
			startupLogger.Fatal().Err(err).Msg("unable to create database connection pool")
		}

		// the base server closes the pool once every other server has stopped
		closables = append(closables, pool)

		pgSlots := core.NewPostgresSlots(pool)

		err = pgSlots.EnsureSchema(ctx)
		if err != nil {
			startupLogger.Fatal().Err(err).Msg("unable to prepare database schema")
		}

		slots = pgSlots
	case "memory":
		slots = core.NewMemorySlots()
	default:
		startupLogger.Fatal().Str("driver", cfg.StoreDriver).Msg("unknown store driver")
	}

	loc, err := cfg.Location()
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to load events timezone")
	}

	locale, err := language.Parse(cfg.EventsLocale)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to parse events locale")
	}

	// 4. Wiring
	listing := core.NewListing(core.NewEventStore(slots, cfg.StoreSlotKey), core.WithLocation(loc), core.WithLocale(locale))
	handlers := core.NewHandlers(listing)

	if cfg.SeedFile != "" {
		events, err := core.LoadSeed(cfg.SeedFile)
		if err != nil {
			startupLogger.Fatal().Err(err).Msg("unable to load seed file")
		}

		seeded, err := listing.Seed(ctx, events)
		if err != nil {
			startupLogger.Fatal().Err(err).Msg("unable to store seed events")
		}

		startupLogger.Info().Bool("seeded", seeded).Int("events", len(events)).Str("file", cfg.SeedFile).Msg("seed file processed")
	}

	// 5. Daemons/servers setup

	gin.SetMode(gin.ReleaseMode)

	restHandler := gin.New()
	restHandler.Use(gin.Recovery())
	restHandler.Use(resources.TracerMiddleware(name))
	restHandler.Use(resources.MeterMiddleware(name))
	restHandler.Use(resources.RequestLogger())

	core.RegisterRoutes(restHandler, handlers, resources.BasicAuth(cfg.AdminUser, cfg.AdminPasswordHash))

	scheduler, err := servers.NewScheduler(listing.PruneJob(ctx), cfg.PruneSchedule)
	if err != nil {
		startupLogger.Fatal().Err(err).Msg("unable to build prune scheduler")
	}

	// 6. Daemons/servers lifecycle

	errChan := make(chan error, 16)

	serverName, server := servers.BuildBaseServer(closables...)
	stopFn = servers.Start(ctx, serverName, server, errChan)
	defer stopFn(ctx, 15*time.Second)

	serverName, server = servers.BuildCronServer("prune-cron", scheduler)
	stopFn = servers.Start(ctx, serverName, server, errChan)
	defer stopFn(ctx, 15*time.Second)

	serverName, server = servers.BuildHttpServer("debug-server",
		servers.NewServer(cfg.DebugHost, cfg.DebugPort, resources.NewDebugHandler()))
	stopFn = servers.Start(ctx, serverName, server, errChan)
	defer stopFn(ctx, 15*time.Second)

	serverName, server = servers.BuildHttpServer("rest-server",
		servers.NewServer(cfg.HTTPHost, cfg.HTTPPort, restHandler))
	stopFn = servers.Start(ctx, serverName, server, errChan)
	defer stopFn(ctx, 15*time.Second)

	startupLogger.Info().Msg("application running")

	// 7. Wait for shutdown signal

	notifyCtx, cancelNotifyFn := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelNotifyFn()

	select {
	case <-notifyCtx.Done():
		startupLogger.Info().Msg("application shutdown requested")
	case runErr := <-errChan:
		shutdownLogger.Error().Err(runErr).Msg("runtime error")
	}
}
