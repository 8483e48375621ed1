package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/shiftmarket/suspension-service/internal/api/http"
	"github.com/shiftmarket/suspension-service/internal/api/http/handlers"
	"github.com/shiftmarket/suspension-service/internal/auth"
	"github.com/shiftmarket/suspension-service/internal/config"
	"github.com/shiftmarket/suspension-service/internal/events"
	"github.com/shiftmarket/suspension-service/internal/observability"
	"github.com/shiftmarket/suspension-service/internal/persistence"
	"github.com/shiftmarket/suspension-service/internal/policy"
	"github.com/shiftmarket/suspension-service/internal/repository"
	"github.com/shiftmarket/suspension-service/internal/service"
	"github.com/shiftmarket/suspension-service/internal/storage"
	"github.com/shiftmarket/suspension-service/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	escalation, err := policy.NewEscalation(policy.DefaultTable)
	if err != nil {
		logger.Fatal("invalid escalation table", zap.Error(err))
	}

	evidenceStore, err := storage.NewDiskEvidenceStore(cfg.Evidence.Dir, cfg.Evidence.PublicBaseURL)
	if err != nil {
		logger.Fatal("failed to init evidence store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	suspensionRepo := repository.NewSuspensionRepository(pool)
	appealRepo := repository.NewAppealRepository(pool)
	workerRepo := repository.NewWorkerRepository(pool)
	shiftRepo := repository.NewShiftRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	flagCache := repository.NewWorkerFlagCache(rdb.Client)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	suspensionService := service.NewSuspensionService(service.SuspensionDependencies{
		SuspensionRepo: suspensionRepo,
		WorkerRepo:     workerRepo,
		ShiftRepo:      shiftRepo,
		HistoryRepo:    historyRepo,
		FlagCache:      flagCache,
		Escalation:     escalation,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	appealService := service.NewAppealService(service.AppealDependencies{
		AppealRepo:     appealRepo,
		SuspensionRepo: suspensionRepo,
		EvidenceStore:  evidenceStore,
		Lifter:         suspensionService,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Policy:         cfg.Policy,
	})
	analyticsService := service.NewAnalyticsService(suspensionRepo, appealRepo, cfg.Policy)
	exportService := service.NewExportService(suspensionRepo, appealRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	expiryWorker := worker.NewExpiryWorker(suspensionService, logger, metrics,
		cfg.Policy.SweepInterval(), cfg.Policy.SweepBatchSize)
	go expiryWorker.Run(ctx)

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Suspensions:    handlers.NewSuspensionsHandler(suspensionService, appealService, analyticsService, exportService),
		Appeals:        handlers.NewAppealsHandler(appealService, exportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
