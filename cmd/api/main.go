package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/coordination-service/internal/api/http"
	"github.com/spec-kit/coordination-service/internal/api/http/handlers"
	"github.com/spec-kit/coordination-service/internal/auth"
	"github.com/spec-kit/coordination-service/internal/config"
	"github.com/spec-kit/coordination-service/internal/events"
	"github.com/spec-kit/coordination-service/internal/observability"
	"github.com/spec-kit/coordination-service/internal/persistence"
	"github.com/spec-kit/coordination-service/internal/repository"
	"github.com/spec-kit/coordination-service/internal/service"
	"github.com/spec-kit/coordination-service/internal/tenant"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	workItemRepo := repository.NewWorkItemRepository(pool)
	assignmentRepo := repository.NewStageAssignmentRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	sequenceRepo := repository.NewSequenceRepository(pool)
	sessionRepo := repository.NewSessionRepository(redis.Client)

	settings := tenant.NewSettingsProvider(pool, redis.Client, cfg.Tenant.CacheTTL(), logger)
	memberships := tenant.NewMembershipChecker(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	numbering := service.NewNumbering(sequenceRepo)
	admission := service.NewAdmissionControl(assignmentRepo, ticketRepo)

	pipelineService := service.NewPipelineService(service.PipelineDependencies{
		WorkItemRepo:   workItemRepo,
		AssignmentRepo: assignmentRepo,
		SessionRepo:    sessionRepo,
		Settings:       settings,
		Memberships:    memberships,
		Admission:      admission,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	queueService := service.NewQueueService(service.QueueDependencies{
		TicketRepo:  ticketRepo,
		SessionRepo: sessionRepo,
		Settings:    settings,
		Memberships: memberships,
		Admission:   admission,
		Numbering:   numbering,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		WorkItemRepo: workItemRepo,
		TicketRepo:   ticketRepo,
		Settings:     settings,
		Numbering:    numbering,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Work:           handlers.NewWorkHandler(pipelineService),
		Tickets:        handlers.NewTicketsHandler(queueService),
		Orders:         handlers.NewOrdersHandler(orderService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
