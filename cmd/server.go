package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/AnthoniusHendriyanto/blogger-auth/config"
	"github.com/AnthoniusHendriyanto/blogger-auth/db"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/handler"
	repo "github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/repository/postgres"
	redisrepo "github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/repository/redis"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/auth/service"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/logger"
	"github.com/AnthoniusHendriyanto/blogger-auth/internal/mail"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v3"
)

const (
	retentionInterval = time.Minute
	shutdownTimeout   = 10 * time.Second
)

func serve(ctx context.Context, _ *cli.Command) error {
	cfg := config.Load()
	logr := logger.New(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logr)

	pool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	ledger, closeLedger, err := newAttemptLedger(ctx, cfg, pool)
	if err != nil {
		return err
	}
	defer closeLedger()

	mailer, err := newEmailSender(cfg, logr)
	if err != nil {
		return err
	}

	users := repo.NewUserRepository(pool)
	sessions := repo.NewDeviceRepository(pool)
	tokens := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry(), cfg.RefreshTokenExpiry())
	hasher := service.NewBcryptHasher(cfg.BcryptCost)

	authService := service.NewAuthService(users, sessions, tokens, hasher, mailer,
		service.AuthSettings{CodeTTL: cfg.CodeTTL(), StrictRefreshRotation: cfg.StrictRefreshRotation},
		service.WithLogger(logr),
	)
	userService := service.NewUserService(users, hasher)
	deviceService := service.NewDeviceService(sessions)
	guard := service.NewAttemptGuard(ledger, cfg.RateLimitMaxAttempts, cfg.RateLimitWindow(), logr)

	retentionCtx, stopRetention := context.WithCancel(ctx)
	defer stopRetention()
	go guard.RunRetention(retentionCtx, retentionInterval, cfg.AttemptRetention())

	validator := handler.NewValidator()
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(handler.RequestLogger(logr))

	handler.RegisterRoutes(app, handler.RouteDeps{
		Auth: handler.NewAuthHandler(authService, userService, validator, handler.CookieSettings{
			Secure: cfg.IsProduction(),
			MaxAge: cfg.RefreshTokenExpiry(),
		}, logr),
		Security:      handler.NewSecurityHandler(deviceService, logr),
		Users:         handler.NewUserHandler(userService, validator, logr),
		Limiter:       guard,
		Authenticator: authService,
		BasicAuth:     cfg.BasicAuth,
		Log:           logr,
	})

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", "port", cfg.Port, "env", cfg.Env, "attempt_store", cfg.AttemptStore)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// newAttemptLedger picks the rate-limit store from ATTEMPT_STORE.
func newAttemptLedger(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (domain.AttemptLedger, func(), error) {
	switch cfg.AttemptStore {
	case "redis":
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("REDIS_URL is required when ATTEMPT_STORE=redis")
		}
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisrepo.NewAttemptLedger(rdb, cfg.AttemptRetention()), func() { _ = rdb.Close() }, nil
	case "postgres", "":
		return repo.NewAttemptRepository(pool), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown ATTEMPT_STORE %q", cfg.AttemptStore)
	}
}

func newEmailSender(cfg *config.Config, logr *slog.Logger) (domain.EmailSender, error) {
	if cfg.SMTP.Host == "" {
		logr.Warn("SMTP_HOST not set, emails are written to the log")
		return mail.NewLogSender(cfg.FrontendURL, logr), nil
	}
	return mail.NewSMTPSender(cfg.SMTP, cfg.FrontendURL, logr)
}
