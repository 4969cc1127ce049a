package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edjs-platform/edjs/internal/api"
	"github.com/edjs-platform/edjs/internal/config"
	"github.com/edjs-platform/edjs/internal/db"
	"github.com/edjs-platform/edjs/internal/i18n"
	"github.com/edjs-platform/edjs/internal/mail"
	"github.com/edjs-platform/edjs/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return RunServer(ctx, cfg, version, logger)
		},
	}
}

// RunServer serves until ctx is cancelled, then shuts down gracefully.
func RunServer(ctx context.Context, cfg config.Config, version string, logger *slog.Logger) error {
	time.Local = cfg.Location

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	defer func() {
		_ = db.Close(database)
	}()

	app, err := NewApp(database, cfg, version, logger)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("edjs listening",
		"address", "0.0.0.0:"+cfg.Port,
		"public_url", cfg.PublicURL,
		"db", cfg.DBPath,
		"tz", cfg.Location.String(),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

// NewApp assembles the fiber application with its middleware stack.
func NewApp(database *gorm.DB, cfg config.Config, version string, logger *slog.Logger) (*fiber.App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	i18nManager, err := i18n.NewManager(cfg.DefaultLanguage, i18n.Locales())
	if err != nil {
		return nil, fmt.Errorf("i18n init failed: %w", err)
	}
	blobs, err := storage.NewLocalStore(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	mailer := mailerFor(cfg, logger)
	logger.Info("mailer configured", "using", mailer.Diagnostics().Using)

	handler, err := api.NewHandler(database, api.Options{
		SecretKey:    cfg.SecretKey,
		CookieSecure: cfg.CookieSecure,
		PublicURL:    cfg.PublicURL,
		SetupToken:   cfg.SetupToken,
		Version:      version,
		Mailer:       mailer,
		Blobs:        blobs,
		I18n:         i18nManager,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("handler init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "EDJS",
		DisableStartupMessage: true,
		BodyLimit:             60 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())
	app.Use(handler.MetricsMiddleware)
	app.Use(handler.LanguageMiddleware)
	api.RegisterRoutes(app, handler)
	return app, nil
}

// mailerFor picks the HTTP mailer when an API key is configured and the
// logging mailer otherwise.
func mailerFor(cfg config.Config, logger *slog.Logger) mail.Mailer {
	if cfg.ResendAPIKey == "" {
		return mail.NewLogMailer(logger)
	}
	return mail.NewResendMailer(mail.ResendConfig{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.MailFrom,
	})
}
