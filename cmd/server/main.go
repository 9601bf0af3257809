package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/signverse/signverse-backend/internal/config"
	"github.com/signverse/signverse-backend/internal/database"
	"github.com/signverse/signverse-backend/internal/events"
	"github.com/signverse/signverse-backend/internal/handlers"
	"github.com/signverse/signverse-backend/internal/logging"
	"github.com/signverse/signverse-backend/internal/mailer"
	"github.com/signverse/signverse-backend/internal/middleware"
	"github.com/signverse/signverse-backend/internal/repository"
	"github.com/signverse/signverse-backend/internal/routes"
	"github.com/signverse/signverse-backend/internal/services"
	"github.com/signverse/signverse-backend/internal/session"
	"github.com/signverse/signverse-backend/internal/signs"
	"github.com/signverse/signverse-backend/internal/translate"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.SlogLevel())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log sink (ERROR+ async batch)
	systemLogs := repository.NewGormSystemLogs(db)
	dbLogHandler := logging.NewDBHandler(systemLogs, 5*time.Second)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, dbLogHandler)))

	repo := repository.NewGormManager(db)

	// Capabilities
	mailOpts := mailer.Options{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUser,
		Password:  cfg.SMTPPassword,
		From:      cfg.MailFrom,
		FromName:  cfg.MailFromName,
		ClientURL: cfg.ClientURL,
		TokenTTL:  cfg.VerificationTokenTTL,
		Timeout:   cfg.MailTimeout,
	}
	var mail services.Mailer
	switch cfg.MailProvider {
	case "log":
		mail = mailer.NewLogMailer(mailOpts)
		slog.Warn("mail provider is log, verification emails are not delivered")
	default:
		mail = mailer.NewSMTPMailer(mailOpts)
	}

	publisher := events.NewKafkaPublisher(events.KafkaConfig{
		Broker:   cfg.KafkaBroker,
		Topic:    cfg.KafkaTopic,
		Username: cfg.KafkaUsername,
		Password: cfg.KafkaPassword,
	})

	index, err := signs.LoadFile(cfg.WLASLDataPath)
	if err != nil {
		slog.Warn("sign dictionary not loaded, serving empty index", "path", cfg.WLASLDataPath, "error", err)
		index = signs.Empty()
	} else {
		slog.Info("sign dictionary loaded", "words", index.Len())
	}

	mlClient := translate.NewClient(cfg.MLServiceURL, cfg.MLTimeout)
	sessions := session.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)

	// Services
	registrationService := services.NewRegistrationService(
		repo, hasher, services.NewRandomTokenGenerator(32), mail, sessions, cfg.VerificationTokenTTL,
	)
	if publisher.Enabled() {
		registrationService.WithEvents(publisher)
	}
	authService := services.NewAuthService(repo, hasher, sessions)

	// Maintenance: expired registrations and old system logs
	cleanupDone := make(chan struct{})
	logging.StartCleanup(cleanupDone, cfg.CleanupInterval,
		logging.CleanupJob{Name: "expired_registrations", Run: registrationService.PurgeExpired},
		logging.CleanupJob{Name: "system_logs", Run: func(ctx context.Context) (int64, error) {
			return systemLogs.DeleteOlderThan(ctx, time.Now().Add(-cfg.LogRetention))
		}},
	)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, routes.Deps{
		Config:    cfg,
		Sessions:  sessions,
		Users:     repo.Users(),
		Auth:      handlers.NewAuthHandler(registrationService, authService, sessions, cfg.IsProduction()),
		Health:    handlers.NewHealthHandler(repo, mlClient, index),
		Signs:     handlers.NewSignHandler(index),
		Translate: handlers.NewTranslateHandler(mlClient),
		Admin:     handlers.NewAdminHandler(registrationService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if err := publisher.Close(); err != nil {
		slog.Error("kafka writer close error", "error", err)
	}
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
