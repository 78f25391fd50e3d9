package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/skilllink-support/internal/api/http"
	"github.com/spec-kit/skilllink-support/internal/api/http/handlers"
	"github.com/spec-kit/skilllink-support/internal/auth"
	"github.com/spec-kit/skilllink-support/internal/chain"
	"github.com/spec-kit/skilllink-support/internal/config"
	"github.com/spec-kit/skilllink-support/internal/observability"
	"github.com/spec-kit/skilllink-support/internal/persistence"
	"github.com/spec-kit/skilllink-support/internal/repository"
	"github.com/spec-kit/skilllink-support/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := pflag.String("env-file", "", "dotenv file to load before reading the environment")
	issueRole := pflag.String("issue-token", "", "print a signed admin API token for this role and exit")
	tokenSubject := pflag.String("token-subject", "passport-operator", "subject claim of the issued token")
	tokenTTL := pflag.Duration("token-ttl", 24*time.Hour, "lifetime of the issued token")
	pflag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *issueRole != "" {
		token, expiresAt, err := issueToken(cfg.Auth, *issueRole, *tokenSubject, *tokenTTL)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Fprintf(os.Stdout, "%s\n# expires %s\n", token, expiresAt.Format(time.RFC3339))
		return
	}
	if err := cfg.ValidatePassport(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Passport, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Passport.RunMigrations {
		if err := persistence.RunPostgresMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	minter, err := chain.NewMinter(ctx, cfg.Chain, logger)
	if err != nil {
		logger.Fatal("failed to init minter", zap.Error(err))
	}
	defer minter.Close()

	metrics := observability.NewMetrics("skilllink_passport")
	pool := pg.PoolHandle()
	passportService := service.NewPassportService(service.PassportDependencies{
		ProfileRepo:  repository.NewProfileRepository(pool),
		PassportRepo: repository.NewPassportRepository(pool),
		Minter:       minter,
		Metrics:      metrics,
		Logger:       logger,
	})

	var authMiddleware *auth.AuthMiddleware
	if cfg.Auth.JWTSecret != "" {
		authMiddleware = auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("AUTH_JWT_SECRET not set; /api/admin is unauthenticated")
	}

	app := httptransport.NewApp("skilllink-passport")
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterPassportRoutes(app, httptransport.PassportRoutes{
		Health:         handlers.NewHealthHandler("skilllink-passport", cfg.App.Version, handlers.DependencyCheck{Name: "postgres", Pinger: pg}),
		Passport:       handlers.NewPassportHandler(passportService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		logger.Info("passport api listening", zap.String("addr", cfg.App.PassportAddr()))
		if err := app.Listen(cfg.App.PassportAddr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
