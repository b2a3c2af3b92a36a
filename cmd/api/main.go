package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-tracker/internal/accountability"
	httptransport "github.com/spec-kit/sla-tracker/internal/api/http"
	"github.com/spec-kit/sla-tracker/internal/api/http/handlers"
	"github.com/spec-kit/sla-tracker/internal/auth"
	"github.com/spec-kit/sla-tracker/internal/calendar"
	"github.com/spec-kit/sla-tracker/internal/config"
	"github.com/spec-kit/sla-tracker/internal/events"
	"github.com/spec-kit/sla-tracker/internal/observability"
	"github.com/spec-kit/sla-tracker/internal/persistence"
	"github.com/spec-kit/sla-tracker/internal/repository"
	"github.com/spec-kit/sla-tracker/internal/service"
	"github.com/spec-kit/sla-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	rosterCfg, err := config.LoadRoster(cfg.SLA.RosterFile)
	if err != nil {
		logger.Fatal("failed to load roster", zap.Error(err))
	}
	loc, err := rosterCfg.Location()
	if err != nil {
		logger.Fatal("invalid roster timezone", zap.Error(err))
	}
	scheduleStart, err := rosterCfg.ScheduleStartTime()
	if err != nil {
		logger.Fatal("invalid roster schedule start", zap.Error(err))
	}
	roster := rosterCfg.Roster()
	logger.Info("roster loaded",
		zap.String("file", cfg.SLA.RosterFile),
		zap.Int("actors", roster.Size()),
		zap.String("timezone", loc.String()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool, logger)
	shiftRepo := repository.NewCachedShiftRepository(
		repository.NewShiftRepository(pool), redis.Handle(), cfg.SLA.TimelineCacheTTL(), logger)
	snapshotRepo := repository.NewSnapshotRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	reportService := service.NewReportService(service.ReportDependencies{
		TicketRepo:   ticketRepo,
		ShiftRepo:    shiftRepo,
		SnapshotRepo: snapshotRepo,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		Calendar:     calendar.New(loc, roster),
		Roster:       roster,
		Timeline: accountability.Options{
			ScheduleStart: scheduleStart,
			Coverage:      &rosterCfg.CoverageWindow,
		},
		Workers:  cfg.SLA.EvalWorkers,
		Lookback: cfg.SLA.Lookback(),
	})

	interval := cfg.SLA.SnapshotInterval()
	if pool == nil {
		logger.Warn("scheduled evaluation disabled without postgres")
		interval = 0
	}
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, roster)
	workerDone := worker.Start(ctx, reportService, notifications, interval, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		SLA:            handlers.NewSLAHandler(reportService, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-workerDone
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
