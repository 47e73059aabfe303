package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/case-sla-service/internal/api/http"
	"github.com/spec-kit/case-sla-service/internal/api/http/handlers"
	"github.com/spec-kit/case-sla-service/internal/auth"
	"github.com/spec-kit/case-sla-service/internal/config"
	"github.com/spec-kit/case-sla-service/internal/delivery"
	"github.com/spec-kit/case-sla-service/internal/events"
	"github.com/spec-kit/case-sla-service/internal/observability"
	"github.com/spec-kit/case-sla-service/internal/persistence"
	"github.com/spec-kit/case-sla-service/internal/repository"
	"github.com/spec-kit/case-sla-service/internal/scheduler"
	"github.com/spec-kit/case-sla-service/internal/service"
	"github.com/spec-kit/case-sla-service/internal/sla"
	"github.com/spec-kit/case-sla-service/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	caseRepo := repository.NewCaseRepository(pool)
	noteRepo := repository.NewCaseNoteRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	smsSender := delivery.NewTwilioSMSSender(cfg.Twilio, cfg.SLA)
	emailSender := delivery.NewGomailEmailSender(cfg.SMTP)

	followUp := sla.NewFollowUpNotifier(caseRepo, notificationRepo, smsSender, dispatcher, logger, cfg.SLA.DispatchTimeout())
	escalation := sla.NewEscalationNotifier(caseRepo, adminRepo, notificationRepo, emailSender, dispatcher, logger, cfg.SLA.AdminRoles, cfg.SLA.DispatchTimeout())
	processor := sla.NewProcessor(
		caseRepo,
		followUp,
		escalation,
		sla.Thresholds{FollowUp: cfg.SLA.FollowUpThreshold, Escalation: cfg.SLA.EscalationThreshold},
		persistence.NewRunLock(redis, cfg.SLA.LockTTL()),
		metrics,
		logger,
	)

	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:         caseRepo,
		NoteRepo:         noteRepo,
		NotificationRepo: notificationRepo,
		Dispatcher:       dispatcher,
	})
	authService := service.NewAuthService(cfg.Auth, adminRepo)
	webhookNotifier := service.NewWebhookNotifier(dispatcher, logger, cfg.Webhook)
	worker.StartWebhookWorker(webhookNotifier)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), adminRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSOrigins)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Cases:          handlers.NewCasesHandler(caseService),
		SLA:            handlers.NewSLAHandler(processor),
		AuthMiddleware: authMiddleware,
	})

	slaScheduler, err := scheduler.New(processor, cfg.SLA, logger)
	if err != nil {
		logger.Fatal("failed to init scheduler", zap.Error(err))
	}
	slaScheduler.Start()
	defer slaScheduler.Stop()

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
