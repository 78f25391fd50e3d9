package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/skilllink-support/internal/api/http"
	"github.com/spec-kit/skilllink-support/internal/api/http/handlers"
	"github.com/spec-kit/skilllink-support/internal/config"
	"github.com/spec-kit/skilllink-support/internal/events"
	"github.com/spec-kit/skilllink-support/internal/notify"
	"github.com/spec-kit/skilllink-support/internal/observability"
	"github.com/spec-kit/skilllink-support/internal/persistence"
	"github.com/spec-kit/skilllink-support/internal/ratelimit"
	"github.com/spec-kit/skilllink-support/internal/repository"
	"github.com/spec-kit/skilllink-support/internal/service"
	"github.com/spec-kit/skilllink-support/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := pflag.String("env-file", "", "dotenv file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply migrations and seed content, then exit")
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateSupport(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := persistence.OpenSupportDB(ctx, cfg.Support, logger)
	if err != nil {
		logger.Fatal("failed to open support database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Support.RunMigrations || *migrateOnly {
		if err := persistence.RunMigrations(db, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		if err := persistence.SeedSupportContent(ctx, db, logger); err != nil {
			logger.Fatal("failed to seed support content", zap.Error(err))
		}
	}
	if *migrateOnly {
		return
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics("glow_support")
	dispatcher := events.NewAsyncDispatcher(logger)

	notificationService := service.NewNotificationService(dispatcher, notify.NewEmailNotifier(cfg.Notification, logger), metrics, logger)
	sink, err := events.NewKafkaSink(cfg.Kafka, logger)
	if err != nil {
		logger.Fatal("failed to connect kafka", zap.Error(err))
	}
	defer sink.Close() //nolint:errcheck
	worker.StartNotificationWorker(dispatcher, notificationService, sink)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewTicketRepository(db.DB),
		HistoryRepo: repository.NewTicketHistoryRepository(db.DB),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	knowledgeService := service.NewKnowledgeService(repository.NewKnowledgeRepository(db.DB), logger)
	chatService := service.NewChatService(repository.NewChatRepository(db.DB))

	reconciler, err := worker.NewStatsReconcileWorker(cfg.Worker.StatsReconcileSchedule, ticketService, logger)
	if err != nil {
		logger.Fatal("failed to schedule stats reconciler", zap.Error(err))
	}
	reconciler.Start(ctx)

	local := ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())
	local.StartCleanup(ctx, cfg.RateLimit.Window())
	var limiter ratelimit.Limiter = local
	if redis.Enabled() {
		limiter = ratelimit.NewFallbackLimiter(
			ratelimit.NewRedisLimiter(redis.Client, "glow:ratelimit:", cfg.RateLimit.Requests, cfg.RateLimit.Window()),
			local,
			logger,
		)
	}

	checks := []handlers.DependencyCheck{{Name: "sqlite", Pinger: db}}
	if redis.Enabled() {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Pinger: redis})
	}

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterSupportRoutes(app, httptransport.SupportRoutes{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks...),
		Tickets:   handlers.NewTicketsHandler(ticketService),
		Knowledge: handlers.NewKnowledgeHandler(knowledgeService),
		Chat:      handlers.NewChatHandler(chatService),
		RateLimit: ratelimit.Middleware(limiter, logger, metrics),
		Metrics:   metrics,
	})

	go func() {
		logger.Info("support api listening", zap.String("addr", cfg.App.SupportAddr()))
		if err := app.Listen(cfg.App.SupportAddr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	_ = app.ShutdownWithContext(shutdownCtx)
	if err := reconciler.Stop(shutdownCtx); err != nil {
		logger.Warn("stats reconciler did not stop in time", zap.Error(err))
	}
	knowledgeService.Wait()
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("pending notifications abandoned", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
